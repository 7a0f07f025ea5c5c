package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/service"
	"github.com/mealmesh/marketplace/pkg/httputil"
	appvalidator "github.com/mealmesh/marketplace/pkg/validator"
)

const maxBodyBytes = 1 << 20

// CartHandler exposes cart operations.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler creates a cart handler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	CustomerID string              `json:"customer_id" validate:"required,uuid"`
	MenuItemID string              `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int                 `json:"quantity" validate:"gte=1,lte=99"`
	Note       string              `json:"note" validate:"max=500"`
	Selection  domain.SelectionSet `json:"selection"`
}

type updateQuantityRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"gte=0,lte=99"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, err := httputil.ParseUUID(r.URL.Query().Get("customer_id"), "customer_id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid customer id")
		return
	}
	cart, err := h.carts.Get(r.Context(), customerID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to load cart")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	customerID, _ := httputil.ParseUUID(req.CustomerID, "customer_id")
	menuItemID, _ := httputil.ParseUUID(req.MenuItemID, "menu_item_id")

	cart, err := h.carts.AddItem(r.Context(), customerID, menuItemID, req.Quantity, req.Note, req.Selection)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to add item to cart")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := httputil.ParseUUID(chi.URLParam(r, "lineID"), "line id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid line id")
		return
	}
	var req updateQuantityRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	customerID, _ := httputil.ParseUUID(req.CustomerID, "customer_id")

	cart, err := h.carts.UpdateQuantity(r.Context(), customerID, lineID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to update cart line")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := httputil.ParseUUID(chi.URLParam(r, "lineID"), "line id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid line id")
		return
	}
	customerID, err := httputil.ParseUUID(r.URL.Query().Get("customer_id"), "customer_id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid customer id")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), customerID, lineID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to remove cart line")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	customerID, err := httputil.ParseUUID(r.URL.Query().Get("customer_id"), "customer_id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid customer id")
		return
	}
	if err := h.carts.Clear(r.Context(), customerID); err != nil {
		httputil.WriteError(w, r, err, "failed to clear cart")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	err := appvalidator.DecodeAndValidate(r.Body, dst)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}
	return err
}
