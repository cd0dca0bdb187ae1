// Package api exposes the task board over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskboard/internal/service"
)

// Deps wires the router. Billing may be nil, in which case the billing
// routes are not mounted.
type Deps struct {
	Verifier    IdentityVerifier
	Users       *service.UserService
	Tasks       *service.TaskService
	Stats       *service.StatsService
	Preferences *service.PreferenceService
	Billing     BillingProvider
	Registry    *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := NewMetrics(reg)

	h := &Handler{
		users:   d.Users,
		tasks:   d.Tasks,
		stats:   d.Stats,
		prefs:   d.Preferences,
		billing: d.Billing,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	authed := r.Group("/", Authenticate(d.Verifier))

	tasks := authed.Group("/tasks")
	tasks.GET("", h.listTasks)
	tasks.POST("", h.createTask)
	tasks.POST("/bulk-delete", h.bulkDeleteTasks)
	tasks.GET("/:id", h.getTask)
	tasks.PATCH("/:id", h.updateTask)
	tasks.DELETE("/:id", h.deleteTask)
	tasks.POST("/:id/toggle", h.toggleTask)

	authed.GET("/stats", h.getStats)

	authed.GET("/preferences", h.getPreferences)
	authed.PATCH("/preferences", h.updatePreferences)

	authed.POST("/users/sync", h.syncUser)
	authed.GET("/users/me", h.currentUser)

	if d.Billing != nil {
		authed.GET("/billing/products", h.listProducts)
		authed.POST("/billing/checkout", h.createCheckout)
	}

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
