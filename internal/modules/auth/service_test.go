package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{Subject: "u1", ExpiresAt: exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type fixture struct {
	svc   Service
	ctx   context.Context
	store storage.Store
	calls atomic.Int32
}

func newFixture(t *testing.T, h http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{store: storage.NewMemoryStore()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	api := apiclient.New(&config.Resolver{APIOverride: srv.URL}, srv.Client(), nil)
	f.svc = NewService(api, zap.NewNop())
	f.ctx = session.WithBucket(context.Background(), storage.NewBucket(f.store, "sid"))
	return f
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	token := signed(t, time.Now().Add(time.Hour))
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "amina@mama.dz", body["email"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": token,
			"user":  map[string]interface{}{"firstName": "Amina", "lastName": "B", "email": "amina@mama.dz", "role": "admin"},
		})
	})

	u, err := f.svc.Login(f.ctx, " amina@mama.dz ", "pw")
	require.NoError(t, err)
	assert.Equal(t, &SessionUser{Name: "Amina B", Email: "amina@mama.dz", IsAdmin: true}, u)

	got, err := f.svc.Token(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)
	legacy, _, _ := f.store.Get(f.ctx, "sid", storage.KeyAuthToken)
	assert.Equal(t, token, string(legacy))

	cached, err := f.svc.CurrentUser(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, u, cached)

	require.NoError(t, f.svc.Logout(f.ctx))
	cached, err = f.svc.CurrentUser(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := f.svc.Login(f.ctx, "", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = f.svc.Register(f.ctx, RegisterRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, f.calls.Load())
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	_, err := f.svc.Login(f.ctx, "a@b.c", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", apiclient.MessageOr(err, ""))
	tok, _ := f.svc.Token(f.ctx)
	assert.Empty(t, tok)
}

func TestExpiredTokenSignsOutWithoutNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	b := session.FromContext(f.ctx)
	require.NoError(t, b.SetString(f.ctx, storage.KeyAuthToken, signed(t, time.Now().Add(-time.Minute))))
	require.NoError(t, b.SetJSON(f.ctx, storage.KeyUser, SessionUser{Name: "x"}))

	tok, err := f.svc.Token(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	_, ok, _ := f.store.Get(f.ctx, "sid", storage.KeyUser)
	assert.False(t, ok)
	assert.Zero(t, f.calls.Load())
}

func TestOpaqueTokenIsKept(t *testing.T) {
	assert.False(t, expired("not-a-jwt", time.Now()))
}

func TestMeRefreshesOrInvalidates(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			w.Write([]byte(`{"user":{"name":"Karim","email":"k@mama.dz","isAdmin":false,"avatar":"/a.png"}}`))
		}
	})
	require.NoError(t, session.FromContext(f.ctx).SetString(f.ctx, storage.KeyToken, "opaque"))

	u, err := f.svc.Me(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &SessionUser{Name: "Karim", Email: "k@mama.dz", Avatar: "/a.png"}, u)

	status.Store(http.StatusUnauthorized)
	u, err = f.svc.Me(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
	tok, _ := f.svc.Token(f.ctx)
	assert.Empty(t, tok)
}

func TestRevalidateHonoursInterval(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			w.Write([]byte(`{"user":{"name":"Karim","email":"k@mama.dz","role":"admin"}}`))
		}
	})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.(*service).now = func() time.Time { return now }
	require.NoError(t, session.FromContext(f.ctx).SetString(f.ctx, storage.KeyToken, "opaque"))
	karim := &SessionUser{Name: "Karim", Email: "k@mama.dz", IsAdmin: true}

	u, err := f.svc.Revalidate(f.ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, karim, u)
	assert.Equal(t, int32(1), f.calls.Load(), "missing user is fetched")

	now = now.Add(30 * time.Second)
	u, err = f.svc.Revalidate(f.ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, karim, u)
	assert.Equal(t, int32(1), f.calls.Load())

	now = now.Add(time.Minute)
	status.Store(http.StatusBadGateway)
	u, err = f.svc.Revalidate(f.ctx, time.Minute)
	assert.Error(t, err)
	assert.Equal(t, karim, u, "an unreachable API keeps the cached user")
	assert.Equal(t, int32(2), f.calls.Load())

	status.Store(http.StatusUnauthorized)
	u, err = f.svc.Revalidate(f.ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, u)
	tok, _ := f.svc.Token(f.ctx)
	assert.Empty(t, tok)
	_, ok, _ := f.store.Get(f.ctx, "sid", storage.KeyUserSeen)
	assert.False(t, ok)
}

func TestAttachDropsRejectedToken(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	b := session.FromContext(f.ctx)
	require.NoError(t, b.SetString(f.ctx, storage.KeyToken, "opaque"))
	require.NoError(t, b.SetJSON(f.ctx, storage.KeyUser, SessionUser{Name: "x", IsAdmin: true}))

	var seen *SessionUser
	var token string
	h := Attach(f.svc, time.Minute, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		token = apiclient.TokenFrom(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(f.ctx))
	assert.Nil(t, seen)
	assert.Empty(t, token)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestVisibilityFor(t *testing.T) {
	assert.Equal(t, Visibility{ShowLogin: true, ShowRegister: true}, VisibilityFor(nil))
	v := VisibilityFor(&SessionUser{Name: "a"})
	assert.True(t, v.ShowLogout)
	assert.False(t, v.ShowAdmin)
	assert.True(t, VisibilityFor(&SessionUser{IsAdmin: true}).ShowAdmin)
}

func TestRequireAdmin(t *testing.T) {
	ctx := session.WithBucket(context.Background(), storage.NewBucket(storage.NewMemoryStore(), "s"))
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil).WithContext(ctx))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Forders", rec.Header().Get("Location"))

	admin := context.WithValue(ctx, userKey{}, &SessionUser{IsAdmin: true})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil).WithContext(admin))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
