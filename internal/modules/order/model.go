package order

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order, for filter selects.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Next returns the statuses s may move to.
func (s Status) Next() []Status { return append([]Status(nil), validTransitions[s]...) }

// CanTransition reports whether an order in s may move to to.
func (s Status) CanTransition(to Status) bool {
	for _, n := range validTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// Customer is the account that placed an order, when the API populates it.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is an order as returned by the API.
type Order struct {
	ID              string    `json:"_id"`
	OrderNumber     string    `json:"orderNumber,omitempty"`
	Customer        *Customer `json:"user,omitempty"`
	Items           []Line    `json:"items"`
	ShippingAddress Address   `json:"shippingAddress"`
	DeliveryPrice   float64   `json:"deliveryPrice"`
	TotalAmount     float64   `json:"totalAmount"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Summary recomputes the order's totals from its lines and wilaya.
func (o Order) Summary() Summary { return Totals(o.Items, o.ShippingAddress.Wilaya) }

// Reference is the number shown to people: the order number when set, else the id.
func (o Order) Reference() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

// Line is one order line. Price is the unit price charged.
type Line struct {
	Product  ProductRef `json:"product"`
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	Quantity int        `json:"quantity"`
	Image    string     `json:"image,omitempty"`
}

// LineTotal is Price × Quantity.
func (l Line) LineTotal() float64 { return l.Price * float64(l.Quantity) }

// ProductRef is a product id that the API sends either bare or populated
// as an object.
type ProductRef string

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var p struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = ProductRef(p.ID)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ProductRef(s)
	return nil
}

// Page is one page of orders.
type Page struct {
	Orders     []Order
	Pagination apiclient.Pagination
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	DeliveredOrders int     `json:"deliveredOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
	RecentOrders    []Order `json:"recentOrders,omitempty"`
}
