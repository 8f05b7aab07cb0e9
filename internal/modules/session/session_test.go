package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgemunganga/mama-web/internal/modules/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareIssuesAndReusesCookie(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store, false)

	var seen []string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := FromContext(r.Context())
		seen = append(seen, b.SessionID())
		require.NoError(t, b.SetString(r.Context(), storage.KeySiteTheme, ThemeDark))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies(), "existing cookie is reused")
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])

	v, ok, err := store.Get(context.Background(), seen[0], storage.KeySiteTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ThemeDark, string(v))
}

func TestMiddlewareRejectsForgedCookie(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), false)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEqual(t, "../../etc", FromContext(r.Context()).SessionID())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "../../etc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestToastsPopOnce(t *testing.T) {
	ctx := WithBucket(context.Background(), storage.NewBucket(storage.NewMemoryStore(), "s"))

	Toast(ctx, ToastWarning, "stock limit reached")
	Toast(ctx, ToastSuccess, "added")

	got := PopToasts(ctx)
	assert.Equal(t, []ToastMessage{
		{Kind: ToastWarning, Message: "stock limit reached"},
		{Kind: ToastSuccess, Message: "added"},
	}, got)
	assert.Empty(t, PopToasts(ctx))
}

func TestToggleTheme(t *testing.T) {
	ctx := WithBucket(context.Background(), storage.NewBucket(storage.NewMemoryStore(), "s"))

	assert.Equal(t, ThemeLight, Theme(ctx, storage.KeyAdminTheme))
	next, err := ToggleTheme(ctx, storage.KeyAdminTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, next)
	assert.Equal(t, ThemeLight, Theme(ctx, storage.KeySiteTheme), "site and admin themes are separate")

	next, err = ToggleTheme(ctx, storage.KeyAdminTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, next)
}
