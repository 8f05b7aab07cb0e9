package order

import (
	"context"
	"strconv"
	"strings"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// PageSize is the number of orders fetched per admin page.
const PageSize = 10

// ListFilter selects admin orders.
type ListFilter struct {
	Status Status
	Search string
	Page   int
}

func (f ListFilter) page() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

// ListFilterFromQuery reads status, search and page parameters. Unknown
// statuses are dropped.
func ListFilterFromQuery(get func(string) string) ListFilter {
	f := ListFilter{Search: strings.TrimSpace(get("search"))}
	for _, s := range Statuses {
		if string(s) == get("status") {
			f.Status = s
		}
	}
	f.Page, _ = strconv.Atoi(get("page"))
	f.Page = f.page()
	return f
}

// ListState is the admin order table: the active filter plus the rows
// loaded so far.
type ListState struct {
	filter     ListFilter
	rows       []Order
	pagination apiclient.Pagination
	loaded     bool
}

// NewListState starts a table at f's page with no rows.
func NewListState(f ListFilter) *ListState {
	f.Page = f.page()
	return &ListState{filter: f}
}

func (s *ListState) Filter() ListFilter               { return s.filter }
func (s *ListState) Rows() []Order                    { return append([]Order(nil), s.rows...) }
func (s *ListState) Pagination() apiclient.Pagination { return s.pagination }

// HasMore reports whether "load more" should be offered.
func (s *ListState) HasMore() bool { return s.loaded && s.pagination.HasMore() }

// Load fetches the current page and appends its rows. A failed fetch
// leaves the rows as they were.
func (s *ListState) Load(ctx context.Context, svc Service) ([]Order, error) {
	page, err := svc.ListOrders(ctx, s.filter)
	if err != nil {
		return nil, err
	}
	s.rows = append(s.rows, page.Orders...)
	s.pagination = page.Pagination
	s.loaded = true
	return page.Orders, nil
}

// LoadMore advances to the next page and appends it.
func (s *ListState) LoadMore(ctx context.Context, svc Service) ([]Order, error) {
	s.filter.Page++
	rows, err := s.Load(ctx, svc)
	if err != nil {
		s.filter.Page--
	}
	return rows, err
}
