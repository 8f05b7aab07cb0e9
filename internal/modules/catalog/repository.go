package catalog

import (
	"context"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// Repository defines access to the product catalogue.
type Repository interface {
	List(ctx context.Context, f Filter) (*Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, form apiclient.Form) error
	Update(ctx context.Context, id string, form apiclient.Form) error
	Delete(ctx context.Context, id string) error
}
