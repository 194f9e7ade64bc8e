package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/cart"
)

type cartItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	ProductCode       string          `json:"product_code"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	PriceWithDiscount decimal.Decimal `json:"price_with_discount"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	Items     []cartItemResponse `json:"items"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			ProductCode:       it.ProductCode,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			Price:             it.Price,
			DiscountPercent:   it.DiscountPercent,
			PriceWithDiscount: it.PriceWithDiscount,
		})
	}
	return cartResponse{ID: c.ID, Items: items, UpdatedAt: c.UpdatedAt}
}

// GetCart returns the current user's cart, re-priced against the live
// catalog and discount configuration.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type setCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SetCartItem adds a product to the cart or replaces the quantity of an
// existing line.
func (h *Handler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	var req setCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	c, err := h.carts.SetItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveCartItem deletes a line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	if err := h.carts.RemoveItem(r.Context(), userID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
