package grants

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crewdeck/crewdeck/internal/platform/httpx"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Handler serves the role-permission graph endpoints. Mutations are
// attributed to the authenticated principal and audited best-effort.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	audit    *shared.AuditLogger
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		audit:    audit,
		validate: validator.New(),
	}
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	grant, err := h.service.Grant(r.Context(), req.RoleID, req.PermissionID, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "grant", req.RoleID, map[string]any{"permission_id": req.PermissionID})
	httpx.JSON(w, r, http.StatusCreated, grant)
}

func (h *Handler) grantMany(w http.ResponseWriter, r *http.Request) {
	var req GrantManyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	details, err := h.service.GrantMany(r.Context(), req.RoleID, req.PermissionIDs, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "grant_many", req.RoleID, map[string]any{"permission_ids": req.PermissionIDs})
	httpx.JSON(w, r, http.StatusOK, RoleGrants{RoleID: req.RoleID, Grants: details})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	var req SyncRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	details, err := h.service.SyncExact(r.Context(), roleID, req.PermissionIDs, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "sync", roleID, map[string]any{"permission_ids": req.PermissionIDs})
	httpx.JSON(w, r, http.StatusOK, RoleGrants{RoleID: roleID, Grants: details})
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	details, err := h.service.ListByRole(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, RoleGrants{RoleID: roleID, Grants: details})
}

func (h *Handler) listByPermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.pathID(w, r, "permissionID", "invalid permission ID")
	if !ok {
		return
	}
	views, err := h.service.ListByPermission(r.Context(), permissionID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{
		"permission_id": permissionID,
		"roles":         views,
	})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID", "invalid permission ID")
	if !ok {
		return
	}
	if err := h.service.Revoke(r.Context(), roleID, permissionID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "revoke", roleID, map[string]any{"permission_id": permissionID})
	httpx.JSON(w, r, http.StatusOK, map[string]any{"revoked": true})
}

func (h *Handler) revokeAll(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	if err := h.service.RevokeAll(r.Context(), roleID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "revoke_all", roleID, nil)
	httpx.JSON(w, r, http.StatusOK, map[string]any{"revoked": true})
}

func (h *Handler) actorID(r *http.Request) *int64 {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil
	}
	id := principal.UserID
	return &id
}

func (h *Handler) record(r *http.Request, action string, roleID int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  h.actorID(r),
		Action:   "role_permission." + action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
	if err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", message))
		return 0, false
	}
	return id, true
}
