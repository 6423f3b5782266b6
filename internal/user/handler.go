package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
)

type ServiceAPI interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	username := internal.UsernameFromContext(r.Context())
	if username == "" {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return
	}

	u, err := h.Service.FindUserByUsername(r.Context(), username)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if u == nil {
		h.HandleServiceError(w, internal.ErrUserNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
