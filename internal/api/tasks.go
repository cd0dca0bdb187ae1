package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
)

func (h *Handler) listTasks(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) createTask(c *gin.Context) {
	var req model.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.owner(c)
	if !ok {
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) getTask(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	var req model.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.owner(c)
	if !ok {
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), user.ID, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) toggleTask(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	task, err := h.tasks.Toggle(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) bulkDeleteTasks(c *gin.Context) {
	var req model.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.owner(c)
	if !ok {
		return
	}
	n, err := h.tasks.BulkDelete(c.Request.Context(), user.ID, req.IDs)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, model.BulkDeleteResponse{Message: "Tasks deleted successfully", DeletedCount: n})
}

func (h *Handler) getStats(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}
	stats, err := h.stats.ForOwner(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
