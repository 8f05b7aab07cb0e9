package resource

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// DefaultLimit is the admin table page size.
const DefaultLimit = 10

// ErrNotConfirmed is returned by Delete when the confirmation step was skipped.
var ErrNotConfirmed = errors.New("deletion was not confirmed")

// Outcome is the result of a confirmed delete.
type Outcome int

const (
	Deleted Outcome = iota + 1
	// ComingSoon means the API answered 501: the operation exists in the
	// panel but not yet upstream.
	ComingSoon
)

// Listing is one loaded page of an admin table.
type Listing[T any] struct {
	Rows       []T
	Pagination apiclient.Pagination
	// Degraded is set when the fetch failed and Rows was replaced by an
	// empty collection.
	Degraded bool
}

// Controller drives the list and delete flows of one admin resource.
type Controller[T any] struct {
	api    *apiclient.Client
	logger *zap.Logger
	path   string
	key    string
	limit  int
}

// NewController creates a controller for the list endpoint at path whose
// envelope carries rows under key.
func NewController[T any](api *apiclient.Client, logger *zap.Logger, path, key string) *Controller[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller[T]{api: api, logger: logger, path: path, key: key, limit: DefaultLimit}
}

// Name is the envelope key, used in logs and toasts.
func (c *Controller[T]) Name() string { return c.key }

// Load fetches one page. Any error degrades to an empty collection and is
// only logged.
func (c *Controller[T]) Load(ctx context.Context, page int) Listing[T] {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.limit))

	var rows []T
	p, err := c.api.List(ctx, c.path, q, c.key, &rows)
	if err != nil {
		if !apiclient.IsNoData(err) {
			c.logger.Warn("admin list degraded to empty",
				zap.String("resource", c.key),
				zap.Int("page", page),
				zap.Error(err))
		}
		return Listing[T]{Rows: []T{}, Pagination: apiclient.Pagination{Current: page}, Degraded: true}
	}
	if rows == nil {
		rows = []T{}
	}
	if p.Current == 0 {
		p.Current = page
	}
	return Listing[T]{Rows: rows, Pagination: p}
}

// Get fetches one row.
func (c *Controller[T]) Get(ctx context.Context, id string) (*T, error) {
	var v T
	if err := c.api.GetOne(ctx, c.itemPath(id), singular(c.key), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes id once confirmed. The caller reloads the table on success.
func (c *Controller[T]) Delete(ctx context.Context, id string, confirmed bool) (Outcome, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	return OutcomeOf(c.api.Delete(ctx, c.itemPath(id), nil))
}

// OutcomeOf maps the error of a confirmed upstream delete to its Outcome.
func OutcomeOf(err error) (Outcome, error) {
	switch {
	case err == nil:
		return Deleted, nil
	case apiclient.IsNotImplemented(err):
		return ComingSoon, nil
	default:
		return 0, err
	}
}

func (c *Controller[T]) itemPath(id string) string { return c.path + "/" + url.PathEscape(id) }

func singular(key string) string {
	if n := len(key); n > 1 && key[n-1] == 's' {
		return key[:n-1]
	}
	return key
}
