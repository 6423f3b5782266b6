package menu

import (
	"context"
	"net/http"

	"github.com/frahmantamala/pos-backoffice/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListMenus(ctx context.Context) ([]Node, error)
	CreateMenu(ctx context.Context, req CreateMenuRequest) (*Node, error)
	UpdateMenu(ctx context.Context, code string, req UpdateMenuRequest) (*Node, error)
	DeleteMenu(ctx context.Context, code string) error
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

func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.Service.ListMenus(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MenusResponse{Menus: nodes})
}

func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	node, err := h.Service.CreateMenu(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, node)
}

func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req UpdateMenuRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	node, err := h.Service.UpdateMenu(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, node)
}

func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteMenu(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
