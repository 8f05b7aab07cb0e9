package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/cart"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
)

// Service defines order submission and the admin order operations.
type Service interface {
	// Submit validates addr, optionally re-checks the cart against the
	// catalogue, submits the order and clears the cart on success.
	Submit(ctx context.Context, c *cart.Cart, addr Address) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)

	ListOrders(ctx context.Context, f ListFilter) (*Page, error)

	// UpdateStatus moves an order to a new status if the transition is allowed.
	UpdateStatus(ctx context.Context, id string, to Status) (*Order, error)

	DeleteOrder(ctx context.Context, id string) error

	DashboardStats(ctx context.Context) (*Stats, error)
}

// ProductSource looks up current product data for checkout re-validation.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type service struct {
	repo       Repository
	products   ProductSource
	revalidate bool
	logger     *zap.Logger
}

// NewService creates a new order service. When revalidate is set, Submit
// refreshes every cart line from products before sending the order.
func NewService(repo Repository, products ProductSource, revalidate bool, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, products: products, revalidate: revalidate && products != nil, logger: logger}
}

func (s *service) Submit(ctx context.Context, c *cart.Cart, addr Address) (*Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := Validate(addr); err != nil {
		return nil, err
	}

	if s.revalidate {
		if err := s.refresh(ctx, c); err != nil {
			return nil, err
		}
	}

	d := NewDraft(c.Items(), addr)
	o, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	// Some deployments answer with the id only.
	if len(o.Items) == 0 {
		o.Items = d.Items
	}
	if o.ShippingAddress.FullName == "" {
		o.ShippingAddress = d.ShippingAddress
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if err := c.Clear(ctx); err != nil {
		// The order exists upstream; a stale cart is the lesser problem.
		s.logger.Warn("order placed but cart not cleared", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// refresh re-reads every line's product. Lines whose price or stock moved
// are updated in place and reported together as ErrCartChanged, so the
// shopper reviews the cart before paying. Lookups that fail for other
// reasons are logged and left to the API's own validation.
func (s *service) refresh(ctx context.Context, c *cart.Cart) error {
	var changed []string
	for _, it := range c.Items() {
		p, err := s.products.GetProduct(ctx, it.ID)
		switch {
		case apiclient.IsNotFound(err):
			if err := c.Remove(ctx, it.ID); err != nil {
				return err
			}
			changed = append(changed, it.Name+": no longer available")
			continue
		case err != nil:
			s.logger.Warn("checkout revalidation skipped", zap.String("product_id", it.ID), zap.Error(err))
			continue
		}

		err = c.Refresh(ctx, *p)
		switch {
		case errors.Is(err, cart.ErrOutOfStock), errors.Is(err, cart.ErrExceedsStock):
			changed = append(changed, err.Error())
		case err != nil:
			return err
		default:
			if p.EffectivePrice() != it.Price {
				changed = append(changed, fmt.Sprintf("%s: price changed", it.Name))
			}
		}
	}
	if len(changed) > 0 {
		return fmt.Errorf("%w: %s", ErrCartChanged, strings.Join(changed, "; "))
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("order id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) (*Page, error) {
	return s.repo.List(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !o.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w from %s to %s", ErrInvalidTransition, o.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	o.Status = to
	return o, nil
}

func (s *service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) DashboardStats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// ErrInvalidTransition is returned for status changes the lifecycle forbids.
var ErrInvalidTransition = errors.New("cannot transition order")
