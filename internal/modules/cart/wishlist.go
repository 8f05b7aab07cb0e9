package cart

import (
	"context"
	"fmt"

	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

// Wishlist is a set of product ids. Order is kept only so that a reload
// reproduces the same listing.
type Wishlist struct {
	bucket *storage.Bucket
	ids    []string
}

// LoadWishlist reads the wishlist from b.
func LoadWishlist(ctx context.Context, b *storage.Bucket) (*Wishlist, error) {
	w := &Wishlist{bucket: b}
	if _, err := b.GetJSON(ctx, storage.KeyWishlist, &w.ids); err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	return w, nil
}

// IDs returns the product ids.
func (w *Wishlist) IDs() []string { return append([]string(nil), w.ids...) }

// Len is the number of wished products.
func (w *Wishlist) Len() int { return len(w.ids) }

// Has reports whether id is wished.
func (w *Wishlist) Has(id string) bool {
	for _, v := range w.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present. It reports
// whether id is wished afterwards.
func (w *Wishlist) Toggle(ctx context.Context, id string) (bool, error) {
	next := make([]string, 0, len(w.ids)+1)
	removed := false
	for _, v := range w.ids {
		if v == id {
			removed = true
			continue
		}
		next = append(next, v)
	}
	if !removed {
		next = append(next, id)
	}
	if err := w.bucket.SetJSON(ctx, storage.KeyWishlist, next); err != nil {
		return false, fmt.Errorf("save wishlist: %w", err)
	}
	w.ids = next
	return !removed, nil
}
