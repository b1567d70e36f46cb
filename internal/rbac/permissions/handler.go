package permissions

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

// GrantReader exposes the role side of the grant graph without importing it,
// backing the "permission with its roles" read.
type GrantReader interface {
	RolesByPermission(ctx context.Context, permissionID int64) ([]RoleGrantView, error)
}

// Handler serves the permission catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	grants   GrantReader
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, grants GrantReader) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		grants:   grants,
		validate: validator.New(),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	perm, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, perm)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromQuery(r.URL.Query(), 1000, 1000)
	req := ListPermissionsRequest{Page: page, Limit: limit}
	if code := r.URL.Query().Get("code"); code != "" {
		req.Code = &code
	}
	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
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
	perm, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, perm)
}

func (h *Handler) getRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	perm, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	views, err := h.grants.RolesByPermission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if views == nil {
		views = []RoleGrantView{}
	}
	httpx.JSON(w, r, http.StatusOK, PermissionWithRoles{Permission: *perm, Roles: views})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req UpdatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	perm, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, perm)
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
		httpx.RespondError(w, r, shared.Invalid("invalid permission ID"))
		return 0, false
	}
	return id, true
}
