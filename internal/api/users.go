package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

func (h *Handler) syncUser(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		respondError(c, service.ErrUnauthorized, "")
		return
	}
	var req model.SyncUserRequest
	if !bindJSON(c, &req) {
		return
	}
	id.Email = req.Email
	id.Name = req.Name

	user, created, err := h.users.Sync(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

func (h *Handler) currentUser(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
