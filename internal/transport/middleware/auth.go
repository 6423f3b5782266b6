package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/auth"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
	"github.com/frahmantamala/pos-backoffice/pkg/logger"
)

// Authenticate verifies the bearer token and stores its subject as the request username.
func Authenticate(validator auth.TokenValidator, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := base.ExtractTokenFromHeader(r)
			if token == "" {
				base.HandleServiceError(w, internal.ErrMissingToken)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				base.HandleServiceError(w, err)
				return
			}

			ctx := internal.ContextWithUsername(r.Context(), claims.Username())
			ctx = logger.With(ctx, "username", claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
