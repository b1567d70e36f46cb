package roles

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crewdeck/crewdeck/internal/platform/httpx"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// GrantReader exposes the permission side of the grant graph without
// importing it, backing the "role with its permissions" read.
type GrantReader interface {
	PermissionsByRole(ctx context.Context, roleID int64) ([]PermissionGrantView, error)
}

// AssignmentReader exposes the user side of the assignment graph, backing
// the "role with its users" read.
type AssignmentReader interface {
	UsersByRole(ctx context.Context, roleID int64) ([]UserAssignmentView, error)
}

// Handler serves the role endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	grants      GrantReader
	assignments AssignmentReader
	validate    *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, grants GrantReader, assignments AssignmentReader) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		grants:      grants,
		assignments: assignments,
		validate:    validator.New(),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, role)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromQuery(r.URL.Query(), 1000, 1000)
	req := ListRolesRequest{Page: page, Limit: limit}
	if name := r.URL.Query().Get("name"); name != "" {
		req.Name = &name
	}
	if raw := r.URL.Query().Get("is_default"); raw != "" {
		isDefault, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, r, shared.Invalid("invalid is_default filter"))
			return
		}
		req.IsDefault = &isDefault
	}
	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, role)
}

func (h *Handler) getPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	views, err := h.grants.PermissionsByRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if views == nil {
		views = []PermissionGrantView{}
	}
	httpx.JSON(w, r, http.StatusOK, RoleWithPermissions{Role: *role, Permissions: views})
}

func (h *Handler) getUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	views, err := h.assignments.UsersByRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if views == nil {
		views = []UserAssignmentView{}
	}
	httpx.JSON(w, r, http.StatusOK, RoleWithUsers{Role: *role, Users: views})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	role, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid role ID"))
		return 0, false
	}
	return id, true
}
