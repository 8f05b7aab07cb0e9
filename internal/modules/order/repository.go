package order

import "context"

// Repository defines data access for orders.
type Repository interface {
	// Create submits a new order and returns it as stored.
	Create(ctx context.Context, d Draft) (*Order, error)

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id string) (*Order, error)

	// List returns one page of orders matching f.
	List(ctx context.Context, f ListFilter) (*Page, error)

	// UpdateStatus moves an order to a new status.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// Delete removes an order.
	Delete(ctx context.Context, id string) error

	// Stats returns the dashboard summary.
	Stats(ctx context.Context) (*Stats, error)
}
