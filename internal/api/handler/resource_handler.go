package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/api/metrics"
	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
	"github.com/agridynamic/admin-console/internal/core/service"
)

// ResourceRoutes is what the router mounts under /admin/<name>.
type ResourceRoutes interface {
	Name() string
	List(c echo.Context) error
	Form(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

// ResourceHandler serves one list-resource controller.
type ResourceHandler[T domain.Item] struct {
	ctrl *service.ResourceController[T]
	log  zerolog.Logger
}

func NewResourceHandler[T domain.Item](ctrl *service.ResourceController[T], log zerolog.Logger) *ResourceHandler[T] {
	return &ResourceHandler[T]{ctrl: ctrl, log: log.With().Str("resource", ctrl.Definition().Name).Logger()}
}

// listResponse carries Error when the refresh failed and Items is the
// last-known list.
type listResponse[T any] struct {
	Items []T                     `json:"items"`
	State service.ControllerState `json:"state"`
	Error string                  `json:"error,omitempty"`
}

type formResponse struct {
	Resource string            `json:"resource"`
	Label    string            `json:"label"`
	Mode     string            `json:"mode"`
	ID       string            `json:"id,omitempty"`
	Schema   domain.Schema     `json:"schema"`
	Values   map[string]string `json:"values"`
}

func (h *ResourceHandler[T]) Name() string { return h.ctrl.Definition().Name }

// List handles GET /admin/<name>. A failed refresh still answers 200 with the
// last-known list as long as there is one.
func (h *ResourceHandler[T]) List(c echo.Context) error {
	items, err := h.ctrl.FetchAll(c.Request().Context())
	if err != nil && (len(items) == 0 || errors.Is(err, domain.ErrUnauthorized)) {
		return err
	}
	resp := listResponse[T]{Items: items, State: h.ctrl.Snapshot().State}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	if err != nil {
		resp.Error = domain.UserMessage(err, "could not refresh the list")
	}
	return c.JSON(http.StatusOK, resp)
}

// Form handles GET /admin/<name>/form[?id=]. It returns the schema and the
// values the form starts from.
func (h *ResourceHandler[T]) Form(c echo.Context) error {
	def := h.ctrl.Definition()
	resp := formResponse{Resource: def.Name, Label: def.Label, Schema: def.Schema, Mode: "create"}

	id := c.QueryParam("id")
	if id == "" {
		if !def.CanCreate {
			return domain.ErrNotSupported
		}
		resp.Values = service.NewFormController(def.Schema, nil).Draft().Values
		return c.JSON(http.StatusOK, resp)
	}

	item, err := h.find(c.Request().Context(), id)
	if err != nil {
		return err
	}
	resp.Mode, resp.ID = "edit", id
	resp.Values = service.NewFormController(def.Schema, formSource(item)).Draft().Values
	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /admin/<name>.
func (h *ResourceHandler[T]) Create(c echo.Context) error {
	def := h.ctrl.Definition()
	if !def.CanCreate {
		return h.observe("create", domain.ErrNotSupported)
	}

	form := service.NewFormController(def.Schema, nil)
	if err := readDraft(c, form); err != nil {
		return h.observe("create", err)
	}

	var created T
	err := form.Submit(func(d domain.FormDraft) (err error) {
		created, err = h.ctrl.Create(c.Request().Context(), d)
		return err
	})
	if err := h.observe("create", err); err != nil {
		return err
	}
	h.log.Info().Str("id", created.ItemID()).Str("actor", ctxActor(c)).Msg("created via console")
	if created.ItemID() == "" {
		return c.NoContent(http.StatusCreated)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /admin/<name>/:id. Fields absent from the request keep
// their current value.
func (h *ResourceHandler[T]) Update(c echo.Context) error {
	id := c.Param("id")
	item, err := h.find(c.Request().Context(), id)
	if err != nil {
		return h.observe("update", err)
	}

	form := service.NewFormController(h.ctrl.Definition().Schema, formSource(item))
	if err := readDraft(c, form); err != nil {
		return h.observe("update", err)
	}

	var updated T
	err = form.Submit(func(d domain.FormDraft) (err error) {
		updated, err = h.ctrl.Update(c.Request().Context(), id, d)
		return err
	})
	if err := h.observe("update", err); err != nil {
		return err
	}
	h.log.Info().Str("id", id).Str("actor", ctxActor(c)).Msg("updated via console")
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /admin/<name>/:id?confirm=true. Without the confirm
// flag nothing is sent to the backend.
func (h *ResourceHandler[T]) Delete(c echo.Context) error {
	id := c.Param("id")
	approved := c.QueryParam("confirm") == "true"
	confirm := ports.ConfirmFunc(func(context.Context, string) bool { return approved })

	if err := h.observe("delete", h.ctrl.Delete(c.Request().Context(), id, confirm)); err != nil {
		return err
	}
	h.log.Info().Str("id", id).Str("actor", ctxActor(c)).Msg("deleted via console")
	return c.NoContent(http.StatusNoContent)
}

// find looks id up locally first and refreshes the list once when it is
// missing.
func (h *ResourceHandler[T]) find(ctx context.Context, id string) (T, error) {
	if item, ok := h.ctrl.Find(id); ok {
		return item, nil
	}
	if _, err := h.ctrl.FetchAll(ctx); err != nil {
		var zero T
		return zero, err
	}
	if item, ok := h.ctrl.Find(id); ok {
		return item, nil
	}
	var zero T
	return zero, domain.ErrNotFound
}

func (h *ResourceHandler[T]) observe(action string, err error) error {
	metrics.ResourceMutationsTotal.WithLabelValues(h.Name(), action, outcomeOf(err)).Inc()
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrReadOnlyField), errors.Is(err, domain.ErrUnknownField):
		return "invalid"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrConfirmationDeclined):
		return "declined"
	default:
		return "error"
	}
}

func formSource(item any) domain.FormSource {
	src, _ := item.(domain.FormSource)
	return src
}
