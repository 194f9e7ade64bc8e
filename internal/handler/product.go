package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/catalog"
)

type productResponse struct {
	ID      string          `json:"id"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	GroupID string          `json:"group_id"`
	Price   decimal.Decimal `json:"price"`
	Weight  decimal.Decimal `json:"weight"`
	Volume  decimal.Decimal `json:"volume"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:      p.ID,
		Code:    p.Code,
		Name:    p.Name,
		GroupID: p.GroupID,
		Price:   p.Price,
		Weight:  p.Weight,
		Volume:  p.Volume,
	}
}

// ListProducts returns the full product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}
