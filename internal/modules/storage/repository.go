package storage

import "context"

// Keys persisted per browser session. They keep the names the storefront
// has always used so existing clients and tooling recognise them.
const (
	KeyToken      = "token"
	KeyAuthToken  = "authToken"
	KeyUser       = "user"
	KeyUserSeen   = "userCheckedAt"
	KeyCart       = "mama_cart"
	KeyWishlist   = "mama_wishlist"
	KeyAdminTheme = "adminTheme"
	KeySiteTheme  = "siteTheme"
	KeyToast      = "toast"
	KeySelected   = "mama_selected"
)

// Store persists opaque values per (session, key). Writes are last-write-wins.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, sessionID, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, sessionID, key string) error
}
