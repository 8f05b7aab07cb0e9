package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// Service defines catalogue operations used by the storefront and the admin panel.
type Service interface {
	ListProducts(ctx context.Context, f Filter) (*Page, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	// Categories never fails; an unreachable API yields no categories.
	Categories(ctx context.Context) []string
	// SaveProduct creates the product when id is empty, else updates it.
	SaveProduct(ctx context.Context, id string, in ProductInput, image *apiclient.File) error
	DeleteProduct(ctx context.Context, id string) error
}

// ProductInput holds the admin product form.
type ProductInput struct {
	Name          string
	Description   string
	Category      string
	Price         float64
	SalePrice     float64
	OnSale        bool
	StockQuantity int
	Featured      bool
}

// Validate checks the form before it is sent.
func (in ProductInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return errors.New("product name is required")
	case in.Price <= 0:
		return errors.New("price must be greater than 0")
	case in.StockQuantity < 0:
		return errors.New("stock quantity cannot be negative")
	case in.OnSale && (in.SalePrice <= 0 || in.SalePrice >= in.Price):
		return errors.New("sale price must be between 0 and the list price")
	}
	return nil
}

func (in ProductInput) form(image *apiclient.File) apiclient.Form {
	f := apiclient.Form{Fields: map[string]string{
		"name":          strings.TrimSpace(in.Name),
		"description":   in.Description,
		"category":      in.Category,
		"price":         strconv.FormatFloat(in.Price, 'f', -1, 64),
		"salePrice":     strconv.FormatFloat(in.SalePrice, 'f', -1, 64),
		"onSale":        strconv.FormatBool(in.OnSale),
		"stockQuantity": strconv.Itoa(in.StockQuantity),
		"featured":      strconv.FormatBool(in.Featured),
	}}
	if image != nil {
		f.Files = append(f.Files, *image)
	}
	return f
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListProducts(ctx context.Context, f Filter) (*Page, error) {
	return s.repo.List(ctx, f)
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("product id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Categories(ctx context.Context) []string {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil
	}
	return cats
}

func (s *service) SaveProduct(ctx context.Context, id string, in ProductInput, image *apiclient.File) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if id == "" {
		return s.repo.Create(ctx, in.form(image))
	}
	return s.repo.Update(ctx, id, in.form(image))
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
