package sheetapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// DefaultPath mirrors the deployed endpoint's path.
const DefaultPath = "/exec"

type envelope struct {
	Success bool        `json:"success"`
	Task    *model.Task `json:"task,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type listEnvelope struct {
	Success bool         `json:"success"`
	Tasks   []model.Task `json:"tasks"`
}

// Handler serves the action protocol over a Backend.
type Handler struct {
	backend Backend
	log     *log.Logger
	now     func() time.Time
	newID   func() model.ID
}

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithIDGenerator(gen func() model.ID) Option {
	return func(h *Handler) { h.newID = gen }
}

func NewHandler(b Backend, logger *log.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Handler{
		backend: b,
		log:     logger,
		now:     time.Now,
		newID:   func() model.ID { return model.ID(uuid.NewString()) },
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register mounts the endpoint at path (DefaultPath when empty).
func (h *Handler) Register(e *echo.Echo, path string) {
	if path == "" {
		path = DefaultPath
	}
	e.GET(path, h.serve)
}

func (h *Handler) serve(c echo.Context) error {
	q := c.QueryParams()
	action := q.Get("action")
	switch action {
	case "list":
		return h.list(c)
	case "add":
		return h.add(c, q)
	case "update":
		return h.update(c, q)
	case "delete":
		return h.delete(c, q)
	}
	return fail(c, http.StatusBadRequest, "unknown action: "+action)
}

func (h *Handler) list(c echo.Context) error {
	tasks, err := h.backend.List(c.Request().Context())
	if err != nil {
		return h.internal(c, "list", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, listEnvelope{Success: true, Tasks: tasks})
}

func (h *Handler) add(c echo.Context, q url.Values) error {
	f := model.Fields{
		Title:       q.Get("title"),
		Description: q.Get("description"),
		Assignee:    model.Assignee(q.Get("assignee")),
		Priority:    model.Priority(q.Get("priority")),
		Status:      model.Status(q.Get("status")),
	}.Normalize()
	if f.Title == "" {
		return fail(c, http.StatusBadRequest, "title is required")
	}
	if !f.Status.Valid() {
		return fail(c, http.StatusBadRequest, "invalid status: "+string(f.Status))
	}
	t := f.Provisional(h.newID(), h.now().UTC())
	if err := h.backend.Put(c.Request().Context(), t); err != nil {
		return h.internal(c, "add", err)
	}
	h.log.WithFields(log.Fields{"id": t.ID, "status": t.Status}).Info("task added")
	return c.JSON(http.StatusOK, envelope{Success: true, Task: &t})
}

func (h *Handler) update(c echo.Context, q url.Values) error {
	id := model.ID(strings.TrimSpace(q.Get("id")))
	if id == "" {
		return fail(c, http.StatusBadRequest, "id is required")
	}
	p := patchFromQuery(q)
	if p.Status != nil && !p.Status.Valid() {
		return fail(c, http.StatusBadRequest, "invalid status: "+string(*p.Status))
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fail(c, http.StatusBadRequest, "title is required")
	}
	ctx := c.Request().Context()
	t, err := h.backend.Get(ctx, id)
	if err != nil {
		return h.lookupFailed(c, "update", err)
	}
	t = p.Apply(t)
	t.UpdatedAt = model.Timestamp{Time: h.now().UTC()}
	if err := h.backend.Put(ctx, t); err != nil {
		return h.internal(c, "update", err)
	}
	h.log.WithFields(log.Fields{"id": id, "fields": len(p.Values())}).Info("task updated")
	return c.JSON(http.StatusOK, envelope{Success: true})
}

func (h *Handler) delete(c echo.Context, q url.Values) error {
	id := model.ID(strings.TrimSpace(q.Get("id")))
	if id == "" {
		return fail(c, http.StatusBadRequest, "id is required")
	}
	if err := h.backend.Remove(c.Request().Context(), id); err != nil {
		return h.lookupFailed(c, "delete", err)
	}
	h.log.WithField("id", id).Info("task deleted")
	return c.JSON(http.StatusOK, envelope{Success: true})
}

func (h *Handler) lookupFailed(c echo.Context, action string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fail(c, http.StatusNotFound, err.Error())
	}
	return h.internal(c, action, err)
}

func (h *Handler) internal(c echo.Context, action string, err error) error {
	h.log.WithError(err).WithField("action", action).Error("backend failure")
	return fail(c, http.StatusInternalServerError, err.Error())
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg})
}

// patchFromQuery keeps only the fields present in q.
func patchFromQuery(q url.Values) model.Patch {
	var p model.Patch
	if q.Has("title") {
		v := strings.TrimSpace(q.Get("title"))
		p.Title = &v
	}
	if q.Has("description") {
		v := strings.TrimSpace(q.Get("description"))
		p.Description = &v
	}
	if q.Has("assignee") {
		v := model.Assignee(q.Get("assignee"))
		p.Assignee = &v
	}
	if q.Has("priority") {
		v := model.Priority(q.Get("priority"))
		p.Priority = &v
	}
	if q.Has("status") {
		v := model.Status(q.Get("status"))
		p.Status = &v
	}
	return p
}
