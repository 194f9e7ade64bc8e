package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/order"
)

type orderItemResponse struct {
	ProductID         string          `json:"product_id"`
	ProductCode       string          `json:"product_code"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	PriceWithDiscount decimal.Decimal `json:"price_with_discount"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID                     string              `json:"id"`
	Number                 string              `json:"number"`
	DepartmentID           string              `json:"department_id,omitempty"`
	Status                 order.Status        `json:"status"`
	Items                  []orderItemResponse `json:"items"`
	TotalQuantity          int                 `json:"total_quantity"`
	TotalWeight            decimal.Decimal     `json:"total_weight"`
	TotalVolume            decimal.Decimal     `json:"total_volume"`
	TotalPrice             decimal.Decimal     `json:"total_price"`
	TotalPriceWithDiscount decimal.Decimal     `json:"total_price_with_discount"`
	CreatedAt              time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:         it.ProductID,
			ProductCode:       it.ProductCode,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			Price:             it.Price,
			DiscountPercent:   it.DiscountPercent,
			PriceWithDiscount: it.PriceWithDiscount,
			LineTotal:         it.LineTotal,
		})
	}
	return orderResponse{
		ID:                     o.ID,
		Number:                 o.Number,
		DepartmentID:           o.DepartmentID,
		Status:                 o.Status,
		Items:                  items,
		TotalQuantity:          o.TotalQuantity,
		TotalWeight:            o.TotalWeight,
		TotalVolume:            o.TotalVolume,
		TotalPrice:             o.TotalPrice,
		TotalPriceWithDiscount: o.TotalPriceWithDiscount,
		CreatedAt:              o.CreatedAt,
	}
}

type createOrderRequest struct {
	DepartmentID string `json:"department_id"`
}

// CreateOrder issues an order from the user's current cart.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	o, err := h.orders.CreateFromCart(r.Context(), userID, order.CreateRequest{
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder returns a single order. Users can only read their own orders.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	o, err := h.reader.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if o.UserID != userID {
		writeDomainError(w, r, errForbidden)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListOrders returns the user's order history, optionally bounded by the
// from and to query parameters (RFC 3339 timestamps).
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	filter, err := parseHistoryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := h.reader.ListByUser(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseHistoryFilter(r *http.Request) (order.HistoryFilter, error) {
	var f order.HistoryFilter
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidBound("from")
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidBound("to")
		}
		f.To = t
	}
	return f, nil
}

type errInvalidBound string

func (e errInvalidBound) Error() string {
	return "invalid " + string(e) + " parameter, expected RFC 3339 timestamp"
}
