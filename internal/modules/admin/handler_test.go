package admin

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/order"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

const orderJSON = `{"_id":"o1","orderNumber":"CMD-1","status":"pending",
	"items":[{"product":"P1","name":"Zrir","price":1000,"quantity":2}],
	"shippingAddress":{"fullName":"Amina","phone":"0550123456","wilaya":"16 - الجزائر","address":"Rue 1"}}`

// upstream records every call and answers with canned admin payloads.
type upstream struct {
	mu     sync.Mutex
	calls  []string
	upload string
	me     string // role reported by /auth/me; "revoked" answers 401
}

func (u *upstream) setMe(role string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.me = role
}

func (u *upstream) meJSON(w http.ResponseWriter) {
	u.mu.Lock()
	role := u.me
	u.mu.Unlock()
	switch role {
	case "revoked":
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token revoked"}`))
	case "":
		role = "admin"
		fallthrough
	default:
		w.Write([]byte(`{"user":{"name":"Amina","email":"amina@mama.dz","role":"` + role + `"}}`))
	}
}

func (u *upstream) record(r *http.Request) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	call := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		call += "?" + r.URL.RawQuery
	}
	u.calls = append(u.calls, call)
	return call
}

func (u *upstream) called(prefix string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (u *upstream) uploaded() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.upload
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.record(r)
	switch m, p := r.Method, r.URL.Path; {
	case m == http.MethodGet && p == "/auth/me":
		u.meJSON(w)
	case m == http.MethodGet && p == "/articles":
		w.Write([]byte(`{"articles":[{"_id":"a1","title":"Le couscous","author":{"_id":"u1","name":"Amina"},"published":true}],"pagination":{"total":3,"pages":1,"current":1}}`))
	case m == http.MethodGet && p == "/admin/comments":
		w.Write([]byte(`{"comments":[{"_id":"c1","content":"Bravo","approved":false}],"pagination":{"total":1,"pages":1,"current":1}}`))
	case m == http.MethodGet && p == "/orders/stats/dashboard":
		w.Write([]byte(`{"stats":{"totalOrders":7,"pendingOrders":2,"deliveredOrders":4,"totalRevenue":12500}}`))
	case m == http.MethodGet && p == "/orders":
		w.Write([]byte(`{"orders":[` + orderJSON + `],"pagination":{"total":21,"pages":3,"current":` + pageOf(r) + `}}`))
	case m == http.MethodGet && p == "/orders/o1":
		w.Write([]byte(`{"order":` + orderJSON + `}`))
	case m == http.MethodPatch && p == "/orders/o1/status":
		w.Write([]byte(`{"message":"ok"}`))
	case m == http.MethodDelete && p == "/articles/a1":
		w.Write([]byte(`{"message":"deleted"}`))
	case m == http.MethodDelete && (p == "/users/u1" || p == "/orders/o1"):
		w.WriteHeader(http.StatusNotImplemented)
		w.Write([]byte(`{"message":"Not implemented"}`))
	case m == http.MethodPut && p == "/comments/c1/approve":
		w.Write([]byte(`{"message":"approved"}`))
	case m == http.MethodPost && p == "/articles":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if f, hdr, err := r.FormFile("image"); err == nil {
				body, _ := io.ReadAll(f)
				u.mu.Lock()
				u.upload = r.FormValue("title") + "|" + hdr.Filename + "|" + string(body)
				u.mu.Unlock()
			}
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"article":{"_id":"a2"}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func pageOf(r *http.Request) string {
	if p := r.URL.Query().Get("page"); p != "" {
		return p
	}
	return "1"
}

type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

// newBrowser wires the admin panel against a fake API. With admin set, the
// browser starts signed in as an administrator.
func newBrowser(t *testing.T, admin bool) (*browser, *upstream) {
	t.Helper()
	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	api := apiclient.New(&config.Resolver{APIOverride: srv.URL}, srv.Client(), logger)
	rd, err := render.New(api, render.Options{}, logger)
	require.NoError(t, err)
	products := catalog.NewService(catalog.NewAPIRepository(api))
	orders := order.NewService(order.NewAPIRepository(api), products, false, logger)

	store := storage.NewMemoryStore()
	b := &browser{t: t}
	if admin {
		sid := uuid.NewString()
		bucket := storage.NewBucket(store, sid)
		ctx := context.Background()
		require.NoError(t, bucket.SetString(ctx, storage.KeyToken, "opaque-admin-token"))
		require.NoError(t, bucket.SetJSON(ctx, storage.KeyUser, auth.SessionUser{Name: "Amina", Email: "amina@mama.dz", IsAdmin: true}))
		b.cookie = &http.Cookie{Name: session.CookieName, Value: sid}
	}

	r := chi.NewRouter()
	r.Use(session.NewManager(store, false).Middleware)
	r.Use(auth.Attach(auth.NewService(api, logger), time.Minute, logger))
	NewHandler(api, products, orders, rd, logger).RegisterRoutes(r)
	b.router = r
	return b, up
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return b.send(req)
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	b, up := newBrowser(t, false)
	w := b.do(http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fdashboard", w.Header().Get("Location"))
	assert.Zero(t, up.called(""))
}

func TestDashboard(t *testing.T) {
	b, _ := newBrowser(t, true)

	w := b.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	w = b.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<a class="stat" href="/admin/articles"><span class="value">3</span>`)
	assert.Contains(t, body, `<a class="stat" href="/admin/products"><span class="value">0</span>`)
	assert.Contains(t, body, "12 500 DA")
}

func TestAdminIsConfirmedWithAPI(t *testing.T) {
	b, up := newBrowser(t, true)

	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/admin/dashboard", nil).Code)
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/admin/articles", nil).Code)
	assert.Equal(t, 1, up.called("GET /auth/me"), "confirmed once per recheck interval")
}

func TestRevokedTokenSignsOut(t *testing.T) {
	b, up := newBrowser(t, true)
	up.setMe("revoked")

	w := b.do(http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fdashboard", w.Header().Get("Location"))
	assert.Zero(t, up.called("GET /orders"))

	up.setMe("admin")
	w = b.do(http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code, "the token is gone, not just hidden")
	assert.Equal(t, 1, up.called("GET /auth/me"))
}

func TestDemotedUserLosesAdmin(t *testing.T) {
	b, up := newBrowser(t, true)
	up.setMe("user")

	w := b.do(http.MethodGet, "/admin/orders", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Zero(t, up.called("GET /orders"))
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b, up := newBrowser(t, true)

	w := b.do(http.MethodPost, "/admin/articles/a1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/articles", w.Header().Get("Location"))
	assert.Zero(t, up.called("DELETE"))
	assert.Contains(t, b.do(http.MethodGet, "/admin/articles", nil).Body.String(), "confirmation requise")

	b.do(http.MethodPost, "/admin/articles/a1/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, 1, up.called("DELETE /articles/a1"))
	body := b.do(http.MethodGet, "/admin/articles", nil).Body.String()
	assert.Contains(t, body, "Élément supprimé.")
	assert.Contains(t, body, "Le couscous")
}

func TestDeleteNotImplementedIsComingSoon(t *testing.T) {
	b, _ := newBrowser(t, true)
	b.do(http.MethodPost, "/admin/users/u1/delete", url.Values{"confirm": {"yes"}})
	assert.Contains(t, b.do(http.MethodGet, "/admin/users", nil).Body.String(), "bientôt disponible")
}

func TestOrderDeleteNotImplementedIsComingSoon(t *testing.T) {
	b, up := newBrowser(t, true)

	w := b.do(http.MethodPost, "/admin/orders/o1/delete", url.Values{})
	assert.Equal(t, "/admin/orders", w.Header().Get("Location"))
	assert.Zero(t, up.called("DELETE"))

	w = b.do(http.MethodPost, "/admin/orders/o1/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, "/admin/orders", w.Header().Get("Location"))
	assert.Equal(t, 1, up.called("DELETE /orders/o1"))
	body := b.do(http.MethodGet, "/admin/orders", nil).Body.String()
	assert.Contains(t, body, "Fonctionnalité bientôt disponible.")
	assert.NotContains(t, body, "Not implemented")
}

func TestApproveCommentTriesAdminEndpointFirst(t *testing.T) {
	b, up := newBrowser(t, true)
	w := b.do(http.MethodPost, "/admin/comments/c1/approve", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 1, up.called("PUT /admin/comments/c1/approve"))
	assert.Equal(t, 1, up.called("PUT /comments/c1/approve"))
	assert.Contains(t, b.do(http.MethodGet, "/admin/comments", nil).Body.String(), "Commentaire approuvé.")
}

func TestSaveArticle(t *testing.T) {
	b, up := newBrowser(t, true)

	w := b.do(http.MethodPost, "/admin/articles", url.Values{"content": {"Texte"}})
	assert.Equal(t, "/admin/articles/new", w.Header().Get("Location"))
	assert.Zero(t, up.called("POST"))
	assert.Contains(t, b.do(http.MethodGet, "/admin/articles/new", nil).Body.String(), "Formulaire invalide")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Makrout")
	mw.WriteField("content", "Recette")
	fw, err := mw.CreateFormFile("image", "makrout.jpg")
	require.NoError(t, err)
	fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/articles", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = b.send(req)
	assert.Equal(t, "/admin/articles", w.Header().Get("Location"))
	assert.Equal(t, "Makrout|makrout.jpg|jpeg-bytes", up.uploaded())
}

func TestOrderRows(t *testing.T) {
	b, up := newBrowser(t, true)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/rows?status=pending&search=amina", nil)
	req.Header.Set("HX-Request", "true")
	w := b.send(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, up.called("GET /orders?limit=10&page=1&search=amina&status=pending"))
	body := w.Body.String()
	assert.Contains(t, body, "CMD-1")
	assert.Contains(t, body, "2 400 DA")
	assert.Contains(t, body, `id="load-more"`)

	w = b.do(http.MethodGet, "/admin/orders/rows?page=1&more=1", nil)
	assert.Equal(t, 1, up.called("GET /orders?limit=10&page=2"))
	assert.Contains(t, w.Body.String(), "more=1&amp;page=2")
}

func TestOrderStatusTransitions(t *testing.T) {
	b, up := newBrowser(t, true)

	w := b.do(http.MethodGet, "/admin/orders/o1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<option value="confirmed">`)

	b.do(http.MethodPost, "/admin/orders/o1/status", url.Values{"status": {"delivered"}})
	assert.Zero(t, up.called("PATCH"))
	assert.Contains(t, b.do(http.MethodGet, "/admin/orders/o1", nil).Body.String(), "non autorisé")

	w = b.do(http.MethodPost, "/admin/orders/o1/status", url.Values{"status": {"confirmed"}})
	assert.Equal(t, "/admin/orders/o1", w.Header().Get("Location"))
	assert.Equal(t, 1, up.called("PATCH /orders/o1/status"))
}

func TestMissingOrderIsNotFound(t *testing.T) {
	b, _ := newBrowser(t, true)
	w := b.do(http.MethodGet, "/admin/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Commande introuvable.")
}
