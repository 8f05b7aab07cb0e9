package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

type apiRepo struct{ api *apiclient.Client }

// NewAPIRepository creates a Repository backed by the REST API.
func NewAPIRepository(api *apiclient.Client) Repository { return &apiRepo{api: api} }

func (r *apiRepo) List(ctx context.Context, f Filter) (*Page, error) {
	var products []Product
	page, err := r.api.List(ctx, "/products", f.Query(), "products", &products)
	if err != nil {
		return nil, err
	}
	if page.Current == 0 {
		page.Current = f.normalised().Page
	}
	return &Page{Products: products, Pagination: page}, nil
}

func (r *apiRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.api.GetOne(ctx, "/products/"+url.PathEscape(id), "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *apiRepo) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := r.api.GetJSON(ctx, "/products/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (r *apiRepo) Create(ctx context.Context, form apiclient.Form) error {
	return r.api.SendMultipart(ctx, http.MethodPost, "/products", form, nil)
}

func (r *apiRepo) Update(ctx context.Context, id string, form apiclient.Form) error {
	return r.api.SendMultipart(ctx, http.MethodPut, "/products/"+url.PathEscape(id), form, nil)
}

func (r *apiRepo) Delete(ctx context.Context, id string) error {
	return r.api.Delete(ctx, "/products/"+url.PathEscape(id), nil)
}
