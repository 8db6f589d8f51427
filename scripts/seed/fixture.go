package main

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-pricing/internal/itemprices"
)

const fixtureDate = "2006-01-02"

// Fixture is the YAML document the seeder loads.
type Fixture struct {
	Items  []ItemFixture  `yaml:"items"`
	Prices []PriceFixture `yaml:"prices"`
}

// ItemFixture describes one item master row.
type ItemFixture struct {
	Code             string `yaml:"code"`
	Name             string `yaml:"name"`
	ValuationRate    string `yaml:"valuation_rate"`
	LastPurchaseRate string `yaml:"last_purchase_rate"`
}

// PriceFixture describes one stored price record.
type PriceFixture struct {
	Item       string `yaml:"item"`
	Selling    bool   `yaml:"selling"`
	Buying     bool   `yaml:"buying"`
	Customer   string `yaml:"customer"`
	Supplier   string `yaml:"supplier"`
	Default    bool   `yaml:"default"`
	Rate       string `yaml:"rate"`
	ValidFrom  string `yaml:"valid_from"`
	ValidUntil string `yaml:"valid_until"`
	Disabled   bool   `yaml:"disabled"`
}

// DecodeFixture parses and sanity checks a fixture document.
func DecodeFixture(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	known := make(map[string]struct{}, len(fx.Items))
	for i, item := range fx.Items {
		if item.Code == "" {
			return Fixture{}, fmt.Errorf("items[%d]: code is required", i)
		}
		if _, err := optionalDecimal(item.ValuationRate); err != nil {
			return Fixture{}, fmt.Errorf("items[%d] valuation_rate: %w", i, err)
		}
		if _, err := optionalDecimal(item.LastPurchaseRate); err != nil {
			return Fixture{}, fmt.Errorf("items[%d] last_purchase_rate: %w", i, err)
		}
		known[item.Code] = struct{}{}
	}
	for i, p := range fx.Prices {
		if _, ok := known[p.Item]; !ok {
			return Fixture{}, fmt.Errorf("prices[%d]: unknown item %q", i, p.Item)
		}
		if _, err := p.Input(); err != nil {
			return Fixture{}, fmt.Errorf("prices[%d]: %w", i, err)
		}
	}
	return fx, nil
}

// Input converts the fixture row into a maintenance input.
func (p PriceFixture) Input() (itemprices.Input, error) {
	rate, err := decimal.NewFromString(p.Rate)
	if err != nil {
		return itemprices.Input{}, fmt.Errorf("rate: %w", err)
	}
	from, err := optionalDate(p.ValidFrom)
	if err != nil {
		return itemprices.Input{}, fmt.Errorf("valid_from: %w", err)
	}
	until, err := optionalDate(p.ValidUntil)
	if err != nil {
		return itemprices.Input{}, fmt.Errorf("valid_until: %w", err)
	}
	return itemprices.Input{
		ItemCode:   p.Item,
		Selling:    p.Selling,
		Buying:     p.Buying,
		Customer:   p.Customer,
		Supplier:   p.Supplier,
		IsDefault:  p.Default,
		Rate:       rate,
		ValidFrom:  from,
		ValidUntil: until,
		Enabled:    !p.Disabled,
	}, nil
}

func optionalDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(fixtureDate, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
