package delivery

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed wilayas.yaml
var tableYAML []byte

// Wilaya is one administrative region of the delivery table.
type Wilaya struct {
	Code  int     `yaml:"code" json:"code"`
	Name  string  `yaml:"name" json:"name"`
	Price float64 `yaml:"price" json:"price"`
}

// Key is the form value identifying the wilaya, e.g. "16 - الجزائر".
func (w Wilaya) Key() string { return fmt.Sprintf("%02d - %s", w.Code, w.Name) }

// Table maps wilaya keys to delivery prices.
type Table struct {
	DefaultPrice float64  `yaml:"default_price"`
	Wilayas      []Wilaya `yaml:"wilayas"`

	byKey map[string]float64
}

// Parse decodes a delivery table document.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse delivery table: %w", err)
	}
	t.byKey = make(map[string]float64, len(t.Wilayas))
	for _, w := range t.Wilayas {
		if _, dup := t.byKey[w.Key()]; dup {
			return nil, fmt.Errorf("parse delivery table: duplicate wilaya %q", w.Key())
		}
		t.byKey[w.Key()] = w.Price
	}
	return &t, nil
}

// Price returns the delivery price for region, or DefaultPrice when the
// region is unknown.
func (t *Table) Price(region string) float64 {
	if p, ok := t.byKey[strings.TrimSpace(region)]; ok {
		return p
	}
	return t.DefaultPrice
}

// Known reports whether region is in the table.
func (t *Table) Known(region string) bool {
	_, ok := t.byKey[strings.TrimSpace(region)]
	return ok
}

// Regions returns the wilayas in code order.
func (t *Table) Regions() []Wilaya { return append([]Wilaya(nil), t.Wilayas...) }

var standard = mustParse(tableYAML)

func mustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultPrice is charged for regions missing from the table.
var DefaultPrice = standard.DefaultPrice

// Price looks region up in the built-in table.
func Price(region string) float64 { return standard.Price(region) }

// Known reports whether region is in the built-in table.
func Known(region string) bool { return standard.Known(region) }

// Regions lists the built-in wilayas in code order.
func Regions() []Wilaya { return standard.Regions() }
