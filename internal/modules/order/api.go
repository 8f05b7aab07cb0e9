package order

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

type apiRepo struct{ api *apiclient.Client }

// NewAPIRepository creates a Repository backed by the REST API.
func NewAPIRepository(api *apiclient.Client) Repository { return &apiRepo{api: api} }

func orderPath(id string) string { return "/orders/" + url.PathEscape(id) }

func (r *apiRepo) Create(ctx context.Context, d Draft) (*Order, error) {
	var raw json.RawMessage
	if err := r.api.PostJSON(ctx, "/orders", d, &raw); err != nil {
		return nil, err
	}
	var o Order
	if err := apiclient.DecodeOne(raw, "order", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *apiRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := r.api.GetOne(ctx, orderPath(id), "order", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *apiRepo) List(ctx context.Context, f ListFilter) (*Page, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	q.Set("page", strconv.Itoa(f.page()))
	q.Set("limit", strconv.Itoa(PageSize))

	var orders []Order
	page, err := r.api.List(ctx, "/orders", q, "orders", &orders)
	if err != nil {
		return nil, err
	}
	if page.Current == 0 {
		page.Current = f.page()
	}
	return &Page{Orders: orders, Pagination: page}, nil
}

func (r *apiRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	body := map[string]Status{"status": status}
	return r.api.PatchJSON(ctx, orderPath(id)+"/status", body, nil)
}

func (r *apiRepo) Delete(ctx context.Context, id string) error {
	return r.api.Delete(ctx, orderPath(id), nil)
}

func (r *apiRepo) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := r.api.GetOne(ctx, "/orders/stats/dashboard", "stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
