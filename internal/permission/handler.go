package permission

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
	"github.com/samber/lo"
)

type ServiceAPI interface {
	HasPermission(ctx context.Context, username, menuCode string, required Level) bool
	GetUserMenus(ctx context.Context, username string) ([]UserMenu, error)
	GetPermissionSummary(ctx context.Context, username string) (map[string]Level, error)
	GrantPermission(ctx context.Context, cmd GrantCommand) (*Grant, error)
	RevokePermission(ctx context.Context, menuCode string, targetType TargetType, targetID, revokedBy string) error
	ListGrants(ctx context.Context, targetType TargetType, targetID string) ([]Grant, error)
	ListActiveGrants(ctx context.Context) ([]Grant, error)
	RefreshUserCache(ctx context.Context, username string) error
	RefreshAllCaches(ctx context.Context) error
	RefreshMenuCache(ctx context.Context, menuCode string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetMyMenus handles GET /me/menus
func (h *Handler) GetMyMenus(w http.ResponseWriter, r *http.Request) {
	username, ok := h.caller(w, r)
	if !ok {
		return
	}

	menus, err := h.Service.GetUserMenus(r.Context(), username)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToUserMenusResponse(menus))
}

// GetMyPermissions handles GET /me/permissions
func (h *Handler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	username, ok := h.caller(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.GetPermissionSummary(r.Context(), username)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SummaryResponse{
		Username:    username,
		Permissions: lo.MapValues(summary, func(l Level, _ string) string { return l.String() }),
	})
}

// CheckMyPermission handles GET /me/permissions/check?menu=&level=
func (h *Handler) CheckMyPermission(w http.ResponseWriter, r *http.Request) {
	username, ok := h.caller(w, r)
	if !ok {
		return
	}

	menuCode := r.URL.Query().Get("menu")
	if menuCode == "" {
		h.HandleServiceError(w, internal.NewValidationFieldError("menu", "menu is required", internal.ErrCodeValidationFailed))
		return
	}
	levelParam := r.URL.Query().Get("level")
	if levelParam == "" {
		levelParam = LevelRead.String()
	}
	level, err := ParseLevel(levelParam)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CheckResponse{
		Menu:    menuCode,
		Level:   level.String(),
		Allowed: h.Service.HasPermission(r.Context(), username, menuCode, level),
	})
}

// ListGrants handles GET /permissions/grants[?target_type=&target_id=]
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		grants []Grant
		err    error
	)
	if q.Get("target_type") == "" {
		grants, err = h.Service.ListActiveGrants(r.Context())
	} else {
		var targetType TargetType
		targetType, err = ParseTargetType(q.Get("target_type"))
		if err == nil {
			grants, err = h.Service.ListGrants(r.Context(), targetType, q.Get("target_id"))
		}
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrantsResponse{
		Grants: lo.Map(grants, func(g Grant, _ int) GrantResponse { return g.ToResponse() }),
	})
}

// CreateGrant handles POST /permissions/grants
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	username, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req GrantRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	cmd, err := req.ToCommand(username, time.Now())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := h.Service.GrantPermission(r.Context(), cmd)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g.ToResponse())
}

// RevokeGrant handles DELETE /permissions/grants?menu_code=&target_type=&target_id=
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	username, ok := h.caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	targetType, err := ParseTargetType(q.Get("target_type"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if q.Get("menu_code") == "" || q.Get("target_id") == "" {
		h.HandleServiceError(w, internal.NewValidationError("menu_code and target_id are required", internal.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.RevokePermission(r.Context(), q.Get("menu_code"), targetType, q.Get("target_id"), username); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshCache handles POST /permissions/cache/refresh
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var err error
	switch req.Scope {
	case RefreshScopeUser:
		if req.Username == "" {
			h.HandleServiceError(w, internal.NewValidationFieldError("username", "username is required for scope user", internal.ErrCodeValidationFailed))
			return
		}
		err = h.Service.RefreshUserCache(r.Context(), req.Username)
	case RefreshScopeAll:
		err = h.Service.RefreshAllCaches(r.Context())
	case RefreshScopeMenu:
		err = h.Service.RefreshMenuCache(r.Context(), req.MenuCode)
	default:
		h.HandleServiceError(w, internal.NewValidationFieldError("scope", "scope must be one of user, all, menu", internal.ErrCodeValidationFailed))
		return
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "refreshed", "scope": req.Scope})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := internal.UsernameFromContext(r.Context())
	if username == "" {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return "", false
	}
	return username, true
}
