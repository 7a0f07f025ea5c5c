package http

import (
	"net/http"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/service"
	"github.com/mealmesh/marketplace/pkg/httputil"
)

// CheckoutHandler exposes checkout summary and order creation.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type createOrderRequest struct {
	CustomerID          string        `json:"customer_id" validate:"required,uuid"`
	AddressID           string        `json:"address_id" validate:"required,uuid"`
	PaymentMethod       string        `json:"payment_method" validate:"required,oneof=card cash"`
	PromoCode           string        `json:"promo_code,omitempty"`
	ProviderTxnRef      string        `json:"provider_txn_ref,omitempty"`
	SpecialInstructions string        `json:"special_instructions,omitempty" validate:"max=500"`
	Tax                 *domain.Money `json:"tax,omitempty"`
	DeliveryFee         *domain.Money `json:"delivery_fee,omitempty"`
}

// Summary prices the caller's cart without placing an order.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	customerID, err := httputil.ParseUUID(r.URL.Query().Get("customer_id"), "customer_id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid customer id")
		return
	}
	summary, err := h.checkout.Summary(r.Context(), customerID, r.URL.Query().Get("promo_code"))
	if err != nil {
		httputil.WriteError(w, r, err, "failed to build checkout summary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// CreateOrder turns the caller's cart into an order.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	customerID, _ := httputil.ParseUUID(req.CustomerID, "customer_id")
	addressID, _ := httputil.ParseUUID(req.AddressID, "address_id")

	order, err := h.checkout.CreateOrder(r.Context(), service.CheckoutInput{
		CustomerID:          customerID,
		AddressID:           addressID,
		PaymentMethod:       req.PaymentMethod,
		PromoCode:           req.PromoCode,
		ProviderTxnRef:      req.ProviderTxnRef,
		SpecialInstructions: req.SpecialInstructions,
		Tax:                 req.Tax,
		DeliveryFee:         req.DeliveryFee,
	})
	if err != nil {
		httputil.WriteError(w, r, err, "failed to create order")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}
