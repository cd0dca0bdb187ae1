package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.billing.ListProducts(c.Request.Context())
	if err != nil {
		slog.Error("billing: list products", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, model.ErrorResponse{Error: "billing provider unavailable"})
		return
	}
	if len(products) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, model.ErrorResponse{Error: "No products found"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createCheckout(c *gin.Context) {
	var req model.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.billing.CreateCheckout(c.Request.Context(), req.Products)
	if err != nil {
		slog.Error("billing: create checkout", "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, model.ErrorResponse{Error: "billing provider unavailable"})
		return
	}
	c.JSON(http.StatusCreated, checkout)
}
