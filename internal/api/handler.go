package api

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"taskboard/internal/billing"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

// BillingProvider is the external catalogue and checkout service.
type BillingProvider interface {
	ListProducts(ctx context.Context) ([]json.RawMessage, error)
	CreateCheckout(ctx context.Context, productIDs []string) (*billing.Checkout, error)
}

// Handler holds the services behind the HTTP routes. It keeps no state
// between requests.
type Handler struct {
	users   *service.UserService
	tasks   *service.TaskService
	stats   *service.StatsService
	prefs   *service.PreferenceService
	billing BillingProvider
}

// owner resolves the authenticated caller to an internal user. On failure
// the response has been written and ok is false.
func (h *Handler) owner(c *gin.Context) (*model.User, bool) {
	id, ok := identityFrom(c)
	if !ok {
		respondError(c, service.ErrUnauthorized, "")
		return nil, false
	}
	user, err := h.users.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "user")
		return nil, false
	}
	return user, true
}
