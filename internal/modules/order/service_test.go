package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/cart"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

type fixture struct {
	api      *apiclient.Client
	requests atomic.Int32
}

func newFixture(t *testing.T, h http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	f.api = apiclient.New(&config.Resolver{APIOverride: srv.URL}, srv.Client(), nil)
	return f
}

func (f *fixture) service(revalidate bool) Service {
	products := catalog.NewService(catalog.NewAPIRepository(f.api))
	return NewService(NewAPIRepository(f.api), products, revalidate, nil)
}

func filledCart(t *testing.T, p catalog.Product, qty int) *cart.Cart {
	t.Helper()
	ctx := context.Background()
	c, err := cart.Load(ctx, storage.NewBucket(storage.NewMemoryStore(), "sid"))
	require.NoError(t, err)
	require.NoError(t, c.Select(ctx, p))
	_, err = c.AddToCart(ctx, p.ID, qty)
	require.NoError(t, err)
	return c
}

var zrir = catalog.Product{ID: "P1", Name: "Zrir", Price: 1000, StockQuantity: 5}

func TestSubmitRejectsBadPhoneWithoutNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	c := filledCart(t, zrir, 2)

	addr := validAddress
	addr.Phone = "123456"
	_, err := f.service(true).Submit(context.Background(), c, addr)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Zero(t, f.requests.Load())
	assert.Equal(t, 2, c.Count(), "cart kept for another attempt")
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	c, err := cart.Load(context.Background(), storage.NewBucket(storage.NewMemoryStore(), "sid"))
	require.NoError(t, err)
	_, err = f.service(false).Submit(context.Background(), c, validAddress)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.requests.Load())
}

func TestSubmitSuccessClearsCart(t *testing.T) {
	var got Draft
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/products/P1":
			w.Write([]byte(`{"product":{"_id":"P1","name":"Zrir","price":1000,"stockQuantity":5}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/orders":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"created","order":{"_id":"o-1","status":"pending"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := filledCart(t, zrir, 2)

	o, err := f.service(true).Submit(context.Background(), c, validAddress)
	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 2400.0, got.TotalAmount)
	assert.Equal(t, "0555123456", got.ShippingAddress.Phone)
	assert.NotEmpty(t, got.IdempotencyKey)
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Stock insuffisant"}`))
	})
	c := filledCart(t, zrir, 2)

	_, err := f.service(false).Submit(context.Background(), c, validAddress)
	require.Error(t, err)
	assert.Equal(t, "Stock insuffisant", apiclient.MessageOr(err, "failed"))
	assert.Equal(t, 2, c.Count())
}

func TestSubmitRevalidationCatchesStaleCart(t *testing.T) {
	var posted atomic.Bool
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/P1":
			w.Write([]byte(`{"_id":"P1","name":"Zrir","price":1000,"salePrice":900,"onSale":true,"stockQuantity":1}`))
		case "/orders":
			posted.Store(true)
		}
	})
	c := filledCart(t, zrir, 2)

	_, err := f.service(true).Submit(context.Background(), c, validAddress)
	assert.ErrorIs(t, err, ErrCartChanged)
	assert.False(t, posted.Load())

	it, ok := c.Item("P1")
	require.True(t, ok)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, 900.0, it.Price)
}

func TestUpdateStatus(t *testing.T) {
	var patched atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/orders/o-1":
			w.Write([]byte(`{"order":{"_id":"o-1","status":"pending"}}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/orders/o-1/status":
			patched.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "confirmed", body["status"])
		}
	})
	svc := f.service(false)

	o, err := svc.UpdateStatus(context.Background(), "o-1", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)

	_, err = svc.UpdateStatus(context.Background(), "o-1", StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int32(1), patched.Load())
}

func TestUpdateStatusKeepsUpstreamFailureDistinctFromMissing(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/o-1":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	svc := f.service(false)

	_, err := svc.UpdateStatus(context.Background(), "o-1", StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apiclient.StatusOf(err))
	assert.False(t, apiclient.IsNotFound(err))
	assert.NotContains(t, err.Error(), "not found")

	_, err = svc.UpdateStatus(context.Background(), "missing", StatusConfirmed)
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))
}
