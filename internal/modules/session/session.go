package session

import (
	"context"
	"net/http"
	"time"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
	"github.com/google/uuid"
)

// CookieName identifies the browser whose storage a request reads and writes.
const CookieName = "mama_sid"

type ctxKey struct{}

// Manager issues session cookies and binds storage buckets to requests.
type Manager struct {
	store  storage.Store
	secure bool
}

// NewManager creates a Manager over store.
func NewManager(store storage.Store, secure bool) *Manager {
	return &Manager{store: store, secure: secure}
}

// Middleware ensures a session cookie and puts the session bucket and the
// request host into the context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(CookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := WithBucket(r.Context(), storage.NewBucket(m.store, sid))
		ctx = apiclient.WithHost(ctx, r.Host)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithBucket stores b in ctx.
func WithBucket(ctx context.Context, b *storage.Bucket) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the session bucket. Requests that bypassed the
// middleware get a throwaway in-memory bucket so callers never nil-check.
func FromContext(ctx context.Context) *storage.Bucket {
	if b, ok := ctx.Value(ctxKey{}).(*storage.Bucket); ok {
		return b
	}
	return storage.NewBucket(storage.NewMemoryStore(), "ephemeral")
}
