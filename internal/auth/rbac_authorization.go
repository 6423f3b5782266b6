package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
)

type RBACAuthorization struct {
	gate   Gate
	base   *transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(gate Gate, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		gate:   gate,
		base:   transport.NewBaseHandler(logger),
		logger: logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, menuCode string, required permission.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := internal.UsernameFromContext(r.Context())
		if username == "" {
			ra.logger.WarnContext(r.Context(), "authorization check failed: no authenticated user in context",
				"menu_code", menuCode)
			ra.base.HandleServiceError(w, internal.ErrMissingToken)
			return
		}

		if !ra.gate.HasPermission(r.Context(), username, menuCode, required) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient menu permission",
				"username", username,
				"menu_code", menuCode,
				"required_level", required.String())
			ra.base.HandleServiceError(w, internal.ErrUnauthorizedAccess)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireMenuPermission guards a route with a menu code and minimum level.
func (ra *RBACAuthorization) RequireMenuPermission(menuCode string, required permission.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, menuCode, required)
	}
}
