package catalog

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// Product is a storefront product as served by the API.
type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         float64   `json:"price"`
	SalePrice     float64   `json:"salePrice,omitempty"`
	OnSale        bool      `json:"onSale"`
	StockQuantity int       `json:"stockQuantity"`
	Image         string    `json:"image,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Featured      bool      `json:"featured,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// EffectivePrice is the sale price when the product is on sale, else the list price.
func (p Product) EffectivePrice() float64 {
	if p.OnSale && p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.StockQuantity > 0 }

// PrimaryImage returns the first image reference.
func (p Product) PrimaryImage() string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// DiscountPercent is the rounded saving shown on sale badges.
func (p Product) DiscountPercent() int {
	if !p.OnSale || p.Price <= 0 || p.SalePrice <= 0 || p.SalePrice >= p.Price {
		return 0
	}
	return int((p.Price-p.SalePrice)/p.Price*100 + 0.5)
}

// Sort orders accepted by the listing.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// DefaultLimit is the storefront page size.
const DefaultLimit = 12

// Filter is the storefront listing state: filters plus the current page.
type Filter struct {
	Search   string
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     string
	Page     int
	Limit    int
}

// FilterFromQuery parses listing state from a request query.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		MinPrice: parseFloat(q.Get("minPrice")),
		MaxPrice: parseFloat(q.Get("maxPrice")),
		Sort:     q.Get("sort"),
		Page:     parseInt(q.Get("page")),
		Limit:    parseInt(q.Get("limit")),
	}
	return f.normalised()
}

func (f Filter) normalised() Filter {
	switch f.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular:
	default:
		f.Sort = SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = DefaultLimit
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice > 0 && f.MaxPrice < f.MinPrice {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}
	return f
}

// Query encodes the filter for the API and for pagination links.
func (f Filter) Query() url.Values {
	f = f.normalised()
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	q.Set("sort", f.Sort)
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	return q
}

// WithPage returns a copy of f on page n. Changing filters elsewhere goes
// through FilterFromQuery without a page, which resets to page 1.
func (f Filter) WithPage(n int) Filter {
	f.Page = n
	return f.normalised()
}

// Page is one page of products.
type Page struct {
	Products   []Product
	Pagination apiclient.Pagination
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
