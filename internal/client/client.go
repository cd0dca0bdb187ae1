// Package client is a typed HTTP client for the task board API with a
// query cache. Reads are served from the cache; every successful mutation
// invalidates the affected queries so the next read refetches server truth.
// Toggle and update apply an optimistic change first and revert it if the
// server rejects the mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"taskboard/internal/model"
)

const defaultTimeout = 15 * time.Second

// TokenSource returns the bearer token for the next request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	cache      *Cache
	flight     singleflight.Group
	onError    func(op string, err error)

	fetchTimeout time.Duration
	loc          *time.Location
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLocation sets the zone date-only due dates are anchored in when
// applied optimistically. It should match the server's TIMEZONE.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithOnError sets the hook called for every failed mutation, after any
// optimistic change has been reverted.
func WithOnError(fn func(op string, err error)) Option {
	return func(c *Client) { c.onError = fn }
}

func New(baseURL string, token TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
		cache:      NewCache(),
		onError: func(op string, err error) {
			slog.Warn("mutation failed", "op", op, "error", err)
		},
		fetchTimeout: defaultTimeout,
		loc:          time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the query cache, mainly for callers that want to drop
// everything on sign-out.
func (c *Client) Cache() *Cache {
	return c.cache
}

// =============================================================================
// Queries
// =============================================================================

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := query[[]model.Task](ctx, c, KeyTasks, "/tasks")
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out, nil
}

func (c *Client) Task(ctx context.Context, id string) (model.Task, error) {
	return query[model.Task](ctx, c, TaskKey(id), "/tasks/"+id)
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	return query[model.Stats](ctx, c, KeyStats, "/stats")
}

func (c *Client) Preferences(ctx context.Context) (model.UserPreferences, error) {
	return query[model.UserPreferences](ctx, c, KeyPreferences, "/preferences")
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	return query[model.User](ctx, c, KeyUser, "/users/me")
}

// query serves key from the cache or fetches path. Concurrent misses on the
// same key share one request. The shared request is detached from any
// single caller's cancellation; each caller stops waiting when its own ctx
// is done.
func query[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	var zero T
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		if v, ok := c.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		gen := c.cache.Generation()
		var out T
		if err := c.do(fetchCtx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		c.cache.SetIfCurrent(key, out, gen)
		return out, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// =============================================================================
// Mutations
// =============================================================================

func (c *Client) SyncUser(ctx context.Context, email string, name *string) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPost, "/users/sync", model.SyncUserRequest{Email: email, Name: name}, &user)
	if err != nil {
		return model.User{}, c.fail("sync user", err)
	}
	c.cache.Invalidate(KeyUser)
	return user, nil
}

func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return model.Task{}, c.fail("create task", err)
	}
	c.cache.Invalidate(KeyTasks, KeyStats)
	return task, nil
}

// UpdateTask applies the present fields to the cached task right away, then
// sends the PATCH.
func (c *Client) UpdateTask(ctx context.Context, id string, req model.UpdateTaskRequest) (model.Task, error) {
	restore := c.cache.patchTask(id, func(t *model.Task) { applyUpdate(t, req, c.loc) })

	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id, req, &task); err != nil {
		restore()
		return model.Task{}, c.fail("update task", err)
	}
	c.cache.Invalidate(KeyTasks, KeyStats, TaskKey(id))
	return task, nil
}

// ToggleTask flips the cached completed flag right away, then asks the
// server to toggle.
func (c *Client) ToggleTask(ctx context.Context, id string) (model.Task, error) {
	restore := c.cache.patchTask(id, func(t *model.Task) { t.Completed = !t.Completed })

	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id+"/toggle", nil, &task); err != nil {
		restore()
		return model.Task{}, c.fail("toggle task", err)
	}
	c.cache.Invalidate(KeyTasks, KeyStats, TaskKey(id))
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil); err != nil {
		return c.fail("delete task", err)
	}
	c.cache.Invalidate(KeyTasks, KeyStats, TaskKey(id))
	return nil
}

func (c *Client) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	var resp model.BulkDeleteResponse
	if err := c.do(ctx, http.MethodPost, "/tasks/bulk-delete", model.BulkDeleteRequest{IDs: ids}, &resp); err != nil {
		return 0, c.fail("bulk delete tasks", err)
	}
	c.cache.InvalidateTasks()
	return resp.DeletedCount, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, req model.UpdatePreferencesRequest) (model.UserPreferences, error) {
	var prefs model.UserPreferences
	if err := c.do(ctx, http.MethodPatch, "/preferences", req, &prefs); err != nil {
		return model.UserPreferences{}, c.fail("update preferences", err)
	}
	c.cache.Invalidate(KeyPreferences, KeyTasks, KeyStats)
	return prefs, nil
}

func (c *Client) fail(op string, err error) error {
	if c.onError != nil {
		c.onError(op, err)
	}
	return err
}

// applyUpdate mirrors the server's partial update on a local copy. Due
// dates follow the server's formats: RFC 3339, or YYYY-MM-DD as midnight in
// loc. A due date the client cannot parse is left for the server to settle.
func applyUpdate(t *model.Task, req model.UpdateTaskRequest, loc *time.Location) {
	if v, ok := req.Title.Get(); ok {
		t.Title = strings.TrimSpace(v)
	}
	if req.Description.IsNull() {
		t.Description = nil
	} else if v, ok := req.Description.Get(); ok {
		t.Description = &v
	}
	if v, ok := req.Priority.Get(); ok {
		t.Priority = v
	}
	if v, ok := req.Category.Get(); ok {
		t.Category = v
	}
	if req.DueDate.IsNull() {
		t.DueDate = nil
	} else if v, ok := req.DueDate.Get(); ok {
		if due, ok := parseDueDate(v, loc); ok {
			t.DueDate = due
		}
	}
	if v, ok := req.Completed.Get(); ok {
		t.Completed = v
	}
}

func parseDueDate(raw string, loc *time.Location) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if due, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		due = due.UTC()
		return &due, true
	}
	due, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, false
	}
	due = due.UTC()
	return &due, true
}

// =============================================================================
// Transport
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload model.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
