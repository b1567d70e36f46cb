package assignments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crewdeck/crewdeck/internal/platform/httpx"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Handler serves the user-role graph endpoints. Mutations are attributed to
// the authenticated principal and audited best-effort.
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

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	assignment, err := h.service.Assign(r.Context(), req.UserID, req.RoleID, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "assign", req.UserID, map[string]any{"role_id": req.RoleID})
	httpx.JSON(w, r, http.StatusCreated, assignment)
}

func (h *Handler) assignMany(w http.ResponseWriter, r *http.Request) {
	var req AssignManyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, r, shared.Invalid("%s", err.Error()))
		return
	}
	details, err := h.service.AssignMany(r.Context(), req.UserID, req.RoleIDs, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "assign_many", req.UserID, map[string]any{"role_ids": req.RoleIDs})
	httpx.JSON(w, r, http.StatusOK, UserRoles{UserID: req.UserID, Roles: details})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
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
	details, err := h.service.Sync(r.Context(), userID, req.RoleIDs, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "sync", userID, map[string]any{"role_ids": req.RoleIDs})
	httpx.JSON(w, r, http.StatusOK, UserRoles{UserID: userID, Roles: details})
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
	if !ok {
		return
	}
	details, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, UserRoles{UserID: userID, Roles: details})
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	views, err := h.service.ListByRole(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{
		"role_id": roleID,
		"users":   views,
	})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
	if !ok {
		return
	}
	codes, err := h.service.UserPermissions(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, PermissionSet{UserID: userID, Permissions: codes})
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		httpx.RespondError(w, r, shared.Invalid("permission code is required"))
		return
	}
	granted, err := h.service.CheckPermission(r.Context(), userID, code)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, CheckResult{UserID: userID, Permission: code, Granted: granted})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID", "invalid role ID")
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "remove", userID, map[string]any{"role_id": roleID})
	httpx.JSON(w, r, http.StatusOK, map[string]any{"removed": true})
}

func (h *Handler) removeAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID", "invalid user ID")
	if !ok {
		return
	}
	if err := h.service.RemoveAllForUser(r.Context(), userID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.record(r, "remove_all", userID, nil)
	httpx.JSON(w, r, http.StatusOK, map[string]any{"removed": true})
}

func (h *Handler) actorID(r *http.Request) *int64 {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil
	}
	id := principal.UserID
	return &id
}

func (h *Handler) record(r *http.Request, action string, userID int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  h.actorID(r),
		Action:   "user_role." + action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
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
