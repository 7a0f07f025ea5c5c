package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mealmesh/marketplace/internal/domain"
	"github.com/mealmesh/marketplace/internal/repository"
	"github.com/mealmesh/marketplace/internal/service"
	"github.com/mealmesh/marketplace/pkg/httputil"
)

// OrderHandler exposes order reads, lifecycle transitions, cancellation,
// and reorder.
type OrderHandler struct {
	orders  *service.OrderService
	cancels *service.CancellationService
	reorder *service.ReorderService
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(orders *service.OrderService, cancels *service.CancellationService, reorder *service.ReorderService) *OrderHandler {
	return &OrderHandler{orders: orders, cancels: cancels, reorder: reorder}
}

type cancelRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required,min=5,max=500"`
}

type reorderRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

type acceptRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required,uuid"`
}

type declineRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required,uuid"`
	Reason       string `json:"reason" validate:"required,min=5,max=500"`
}

type updateStatusRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required,uuid"`
	Status       string `json:"status" validate:"required"`
}

type updatePaymentStatusRequest struct {
	RestaurantID  string `json:"restaurant_id" validate:"required,uuid"`
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid failed"`
}

type cancelResponse struct {
	Order           *domain.Order `json:"order"`
	RefundInitiated bool          `json:"refund_initiated"`
}

type reorderResponse struct {
	CartID     uuid.UUID `json:"cart_id"`
	ItemsAdded int       `json:"items_added"`
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	order, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to load order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	entries, err := h.orders.History(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to load order history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{Status: q.Get("status")}

	if v := q.Get("customer_id"); v != "" {
		id, err := httputil.ParseUUID(v, "customer_id")
		if err != nil {
			httputil.WriteError(w, r, err, "invalid customer id")
			return
		}
		filter.CustomerID = &id
	}
	if v := q.Get("restaurant_id"); v != "" {
		id, err := httputil.ParseUUID(v, "restaurant_id")
		if err != nil {
			httputil.WriteError(w, r, err, "invalid restaurant id")
			return
		}
		filter.RestaurantID = &id
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	orders, total, err := h.orders.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to list orders")
		return
	}
	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PageSize))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	customerID, _ := httputil.ParseUUID(req.CustomerID, "customer_id")

	result, err := h.cancels.Cancel(r.Context(), orderID, customerID, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to cancel order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cancelResponse{
		Order:           result.Order,
		RefundInitiated: result.RefundInitiated,
	})
}

func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	customerID, _ := httputil.ParseUUID(req.CustomerID, "customer_id")

	result, err := h.reorder.Reorder(r.Context(), orderID, customerID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to reorder")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reorderResponse{
		CartID:     result.CartID,
		ItemsAdded: result.ItemsAdded,
	})
}

func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req acceptRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	restaurantID, _ := httputil.ParseUUID(req.RestaurantID, "restaurant_id")

	order, err := h.orders.Accept(r.Context(), orderID, restaurantID)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to accept order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Decline(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req declineRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	restaurantID, _ := httputil.ParseUUID(req.RestaurantID, "restaurant_id")

	order, err := h.orders.Decline(r.Context(), orderID, restaurantID, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to decline order")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	restaurantID, _ := httputil.ParseUUID(req.RestaurantID, "restaurant_id")

	order, err := h.orders.Advance(r.Context(), orderID, restaurantID, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to update order status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.ParseUUID(chi.URLParam(r, "orderID"), "order id")
	if err != nil {
		httputil.WriteError(w, r, err, "invalid order id")
		return
	}
	var req updatePaymentStatusRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	restaurantID, _ := httputil.ParseUUID(req.RestaurantID, "restaurant_id")

	order, err := h.orders.UpdatePaymentStatus(r.Context(), orderID, restaurantID, req.PaymentStatus)
	if err != nil {
		httputil.WriteError(w, r, err, "failed to update payment status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}
