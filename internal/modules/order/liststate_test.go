package order

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// pagedService serves three orders per page, two pages per filter.
type pagedService struct {
	Service
	calls []ListFilter
	fail  bool
}

func (s *pagedService) ListOrders(_ context.Context, f ListFilter) (*Page, error) {
	s.calls = append(s.calls, f)
	if s.fail {
		return nil, errors.New("boom")
	}
	var orders []Order
	for i := 0; i < 3; i++ {
		orders = append(orders, Order{ID: fmt.Sprintf("%s-%s-%d-%d", f.Status, f.Search, f.Page, i)})
	}
	return &Page{Orders: orders, Pagination: apiclient.Pagination{Total: 6, Pages: 2, Current: f.Page}}, nil
}

func TestListStateLoadMoreAppends(t *testing.T) {
	ctx := context.Background()
	svc := &pagedService{}
	s := NewListState(ListFilter{Status: StatusPending})

	_, err := s.Load(ctx, svc)
	require.NoError(t, err)
	assert.Len(t, s.Rows(), 3)
	assert.True(t, s.HasMore())

	rows, err := s.LoadMore(ctx, svc)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Len(t, s.Rows(), 6)
	assert.Equal(t, 2, s.Filter().Page)
	assert.False(t, s.HasMore())
}

func TestListStateFilterChangeStartsOver(t *testing.T) {
	ctx := context.Background()
	svc := &pagedService{}
	s := NewListState(ListFilterFromQuery(url.Values{}.Get))
	_, _ = s.Load(ctx, svc)
	_, _ = s.LoadMore(ctx, svc)
	require.Len(t, s.Rows(), 6)

	// The filter form carries no page, so a changed filter is a fresh table.
	q := url.Values{"status": {"shipped"}, "search": {"  amina "}}
	s = NewListState(ListFilterFromQuery(q.Get))
	assert.Empty(t, s.Rows())
	assert.False(t, s.HasMore())
	assert.Equal(t, ListFilter{Status: StatusShipped, Search: "amina", Page: 1}, s.Filter())

	_, err := s.Load(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, "shipped-amina-1-0", s.Rows()[0].ID)
}

func TestListStateFailedLoadMoreKeepsPage(t *testing.T) {
	ctx := context.Background()
	svc := &pagedService{}
	s := NewListState(ListFilter{})
	_, _ = s.Load(ctx, svc)

	svc.fail = true
	_, err := s.LoadMore(ctx, svc)
	assert.Error(t, err)
	assert.Equal(t, 1, s.Filter().Page)
	assert.Len(t, s.Rows(), 3)
}

func TestListFilterFromQuery(t *testing.T) {
	q := url.Values{"status": {"delivered"}, "search": {" x "}, "page": {"0"}}
	assert.Equal(t, ListFilter{Status: StatusDelivered, Search: "x", Page: 1}, ListFilterFromQuery(q.Get))

	q = url.Values{"status": {"lost"}, "page": {"4"}}
	assert.Equal(t, ListFilter{Page: 4}, ListFilterFromQuery(q.Get))
}
