package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

var (
	ErrNoSelection     = errors.New("no product selected")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrExceedsStock    = errors.New("requested quantity exceeds available stock")
	ErrNotInCart       = errors.New("product is not in the cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Item is one cart line. Price is snapped when the line is created.
type Item struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	Image         string  `json:"image"`
	Quantity      int     `json:"quantity"`
	StockQuantity int     `json:"stockQuantity"`
}

// LineTotal is Price × Quantity.
func (i Item) LineTotal() float64 { return i.Price * float64(i.Quantity) }

// Cart is the per-browser cart. Every mutation persists the full collection.
// Invariant: 0 < Quantity <= StockQuantity for every line.
type Cart struct {
	bucket   *storage.Bucket
	items    []Item
	selected *catalog.Product
}

// Load reads the cart and the selected product from b.
func Load(ctx context.Context, b *storage.Bucket) (*Cart, error) {
	c := &Cart{bucket: b}
	if _, err := b.GetJSON(ctx, storage.KeyCart, &c.items); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var p catalog.Product
	ok, err := b.GetJSON(ctx, storage.KeySelected, &p)
	if err != nil {
		return nil, fmt.Errorf("load selected product: %w", err)
	}
	if ok && p.ID != "" {
		c.selected = &p
	}
	return c, nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item { return append([]Item(nil), c.items...) }

// Item returns the line for id.
func (c *Cart) Item(id string) (Item, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Count is the badge value: the sum of quantities.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of line totals.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.LineTotal()
	}
	return sum
}

// Selected returns the product loaded by the last detail view, or nil.
func (c *Cart) Selected() *catalog.Product { return c.selected }

// Select records p as the product the next AddToCart refers to.
func (c *Cart) Select(ctx context.Context, p catalog.Product) error {
	if err := c.bucket.SetJSON(ctx, storage.KeySelected, p); err != nil {
		return err
	}
	c.selected = &p
	return nil
}

// AddToCart adds qty units of the selected product. A rejected addition
// leaves the cart unchanged.
func (c *Cart) AddToCart(ctx context.Context, productID string, qty int) (Item, error) {
	if qty < 1 {
		return Item{}, ErrInvalidQuantity
	}
	p := c.selected
	if p == nil || p.ID != productID {
		return Item{}, ErrNoSelection
	}
	if !p.InStock() {
		return Item{}, ErrOutOfStock
	}

	if i := c.index(productID); i >= 0 {
		next := c.items[i].Quantity + qty
		if next > p.StockQuantity {
			return Item{}, fmt.Errorf("%w: %d in cart, %d in stock", ErrExceedsStock, c.items[i].Quantity, p.StockQuantity)
		}
		updated := c.items[i]
		updated.Quantity = next
		updated.StockQuantity = p.StockQuantity
		return updated, c.replace(ctx, i, updated)
	}

	if qty > p.StockQuantity {
		return Item{}, fmt.Errorf("%w: %d in stock", ErrExceedsStock, p.StockQuantity)
	}
	item := Item{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.EffectivePrice(),
		OriginalPrice: p.Price,
		Image:         p.PrimaryImage(),
		Quantity:      qty,
		StockQuantity: p.StockQuantity,
	}
	items := append(c.Items(), item)
	if err := c.persist(ctx, items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateQuantity overwrites a line's quantity; n <= 0 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, n int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	if n <= 0 {
		return c.Remove(ctx, productID)
	}
	if n > c.items[i].StockQuantity {
		return fmt.Errorf("%w: %d in stock", ErrExceedsStock, c.items[i].StockQuantity)
	}
	updated := c.items[i]
	updated.Quantity = n
	return c.replace(ctx, i, updated)
}

// Remove drops the line for productID. Removing a missing line is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	items := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.ID != productID {
			items = append(items, it)
		}
	}
	return c.persist(ctx, items)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error { return c.persist(ctx, []Item{}) }

// Refresh replaces a line's price and stock ceiling with current values.
// It reports ErrOutOfStock or ErrExceedsStock when the line no longer fits;
// in that case the new ceiling is still stored so the shopper can adjust.
func (c *Cart) Refresh(ctx context.Context, p catalog.Product) error {
	i := c.index(p.ID)
	if i < 0 {
		return ErrNotInCart
	}
	updated := c.items[i]
	updated.Price = p.EffectivePrice()
	updated.OriginalPrice = p.Price
	updated.StockQuantity = p.StockQuantity
	switch {
	case !p.InStock():
		if err := c.Remove(ctx, p.ID); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", p.Name, ErrOutOfStock)
	case updated.Quantity > p.StockQuantity:
		updated.Quantity = p.StockQuantity
		if err := c.replace(ctx, i, updated); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w: %d in stock", p.Name, ErrExceedsStock, p.StockQuantity)
	}
	return c.replace(ctx, i, updated)
}

func (c *Cart) index(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) replace(ctx context.Context, i int, it Item) error {
	items := c.Items()
	items[i] = it
	return c.persist(ctx, items)
}

// persist writes items and only then adopts them, so a failed write leaves
// the in-memory cart unchanged too.
func (c *Cart) persist(ctx context.Context, items []Item) error {
	if err := c.bucket.SetJSON(ctx, storage.KeyCart, items); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	c.items = items
	return nil
}
