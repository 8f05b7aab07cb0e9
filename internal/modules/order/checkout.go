package order

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/mama-web/internal/modules/cart"
	"github.com/georgemunganga/mama-web/internal/modules/delivery"
)

var (
	ErrMissingField = errors.New("required field is missing")
	ErrInvalidPhone = errors.New("phone number must be 10 digits starting with 05, 06 or 07")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrCartChanged  = errors.New("some cart items changed since they were added")
)

var phonePattern = regexp.MustCompile(`^0[567][0-9]{8}$`)

// Address is the delivery address entered at checkout.
type Address struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Wilaya   string `json:"wilaya"`
	Commune  string `json:"commune,omitempty"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

// Normalize trims every field and strips spaces from the phone number.
func (a Address) Normalize() Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.Join(strings.Fields(a.Phone), "")
	a.Wilaya = strings.TrimSpace(a.Wilaya)
	a.Commune = strings.TrimSpace(a.Commune)
	a.Address = strings.TrimSpace(a.Address)
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}

// Validate checks the required fields and the phone format.
func Validate(a Address) error {
	a = a.Normalize()
	required := []struct{ name, value string }{
		{"full name", a.FullName},
		{"phone", a.Phone},
		{"wilaya", a.Wilaya},
		{"address", a.Address},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if !phonePattern.MatchString(a.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

// Summary holds the amounts charged for an order.
type Summary struct {
	Subtotal float64
	Delivery float64
	Total    float64
}

// Totals computes sum(price × quantity) + delivery price for region. The
// checkout, confirmation and admin order views all go through it.
func Totals(lines []Line, region string) Summary {
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.LineTotal()
	}
	s.Delivery = delivery.Price(region)
	s.Total = s.Subtotal + s.Delivery
	return s
}

// LinesFromCart converts cart lines into order lines.
func LinesFromCart(items []cart.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			Product:  ProductRef(it.ID),
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}
	return lines
}

// Draft is the order payload sent to the API.
type Draft struct {
	IdempotencyKey  string  `json:"idempotencyKey"`
	Items           []Line  `json:"items"`
	ShippingAddress Address `json:"shippingAddress"`
	Subtotal        float64 `json:"subtotal"`
	DeliveryPrice   float64 `json:"deliveryPrice"`
	TotalAmount     float64 `json:"totalAmount"`
}

// NewDraft assembles a draft from cart lines and a validated address.
func NewDraft(items []cart.Item, addr Address) Draft {
	addr = addr.Normalize()
	lines := LinesFromCart(items)
	sum := Totals(lines, addr.Wilaya)
	return Draft{
		IdempotencyKey:  uuid.NewString(),
		Items:           lines,
		ShippingAddress: addr,
		Subtotal:        sum.Subtotal,
		DeliveryPrice:   sum.Delivery,
		TotalAmount:     sum.Total,
	}
}
