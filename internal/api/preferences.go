package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
)

func (h *Handler) getPreferences(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	prefs, err := h.prefs.Get(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req model.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.owner(c)
	if !ok {
		return
	}
	prefs, err := h.prefs.Update(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, err, "preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
