package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tradegate/orderdesk/internal/domain/catalog"
	"github.com/tradegate/orderdesk/internal/domain/discount"
)

// DiscountResolver produces the discount snapshot used to price cart lines.
type DiscountResolver interface {
	ResolveSnapshot(ctx context.Context, userID string) (*discount.Snapshot, error)
}

// Service implements cart operations: reading with lazy re-pricing, and
// adding, updating, and removing lines with freshly priced snapshots.
type Service struct {
	carts     Repository
	products  catalog.Repository
	discounts DiscountResolver
	now       func() time.Time
}

// NewService creates a cart Service over the given stores.
func NewService(carts Repository, products catalog.Repository, discounts DiscountResolver) *Service {
	return &Service{
		carts:     carts,
		products:  products,
		discounts: discounts,
		now:       time.Now,
	}
}

// Get returns the user's cart, reconciled against the current catalog and
// discount configuration.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if _, err := s.Reconcile(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Reconcile refreshes every item's price/discount/weight/volume snapshot from
// the live catalog and the user's current discount resolution. Items whose
// product has been deleted keep their stale snapshot. Only changed items are
// written back; the cart's updated timestamp moves only if something changed.
// Orders are never reconciled, only carts.
func (s *Service) Reconcile(ctx context.Context, c *Cart) (bool, error) {
	if len(c.Items) == 0 {
		return false, nil
	}

	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return false, errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	snap, err := s.discounts.ResolveSnapshot(ctx, c.UserID)
	if err != nil {
		return false, errors.Wrap(err, "resolve discounts")
	}

	var changed []CartItem
	for i, item := range c.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			// Product removed from the catalog: retain the stale snapshot.
			continue
		}
		next, dirty := RepriceItem(item, p, snap.Percent(p.GroupID))
		if dirty {
			c.Items[i] = next
			changed = append(changed, next)
		}
	}
	if len(changed) == 0 {
		return false, nil
	}

	now := s.now().UTC()
	if err := s.carts.UpdateItems(ctx, c.ID, changed, now); err != nil {
		return false, errors.Wrap(err, "write back snapshots")
	}
	c.UpdatedAt = now
	return true, nil
}

// SetItem adds a product to the user's cart or replaces the quantity of an
// existing line, snapshotting current pricing. The product must exist.
func (s *Service) SetItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	c, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	snap, err := s.discounts.ResolveSnapshot(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve discounts")
	}

	item := CartItem{ProductID: p.ID, Quantity: quantity}
	for _, existing := range c.Items {
		if existing.ProductID == p.ID {
			item.ID = existing.ID
			break
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item, _ = RepriceItem(item, *p, snap.Percent(p.GroupID))

	now := s.now().UTC()
	if err := s.carts.UpsertItem(ctx, c.ID, item, now); err != nil {
		return nil, errors.Wrap(err, "upsert item")
	}

	replaced := false
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = now
	return c, nil
}

// RemoveItem deletes a product line from the user's cart. Removing an absent
// product is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	c, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get cart")
	}
	if err := s.carts.RemoveItem(ctx, c.ID, productID, s.now().UTC()); err != nil {
		return errors.Wrap(err, "remove item")
	}
	return nil
}
