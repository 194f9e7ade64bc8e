package cart

import (
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/catalog"
	"github.com/tradegate/orderdesk/internal/domain/discount"
)

// RepriceItem recomputes an item's snapshot fields from the current catalog
// state and discount percent. It returns the refreshed item and whether any
// field actually changed, so callers can skip needless writes. Pure function:
// quantity and identity fields are untouched.
func RepriceItem(item CartItem, p catalog.Product, percent decimal.Decimal) (CartItem, bool) {
	next := item
	next.ProductCode = p.Code
	next.ProductName = p.Name
	next.Price = p.Price
	next.DiscountPercent = discount.NormalizePercent(percent)
	next.PriceWithDiscount = discount.ApplyPercent(p.Price, percent)
	next.Weight = p.Weight
	next.Volume = p.Volume

	changed := next.ProductCode != item.ProductCode ||
		next.ProductName != item.ProductName ||
		!next.Price.Equal(item.Price) ||
		!next.DiscountPercent.Equal(item.DiscountPercent) ||
		!next.PriceWithDiscount.Equal(item.PriceWithDiscount) ||
		!next.Weight.Equal(item.Weight) ||
		!next.Volume.Equal(item.Volume)

	return next, changed
}
