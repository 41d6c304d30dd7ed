package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Product is a stock item tracked by the inventory.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Code is the UPC barcode. It stays nil until a code is attached,
	// and is attached at most once.
	Code *string `json:"code" db:"code"`

	// ProductName is the human-readable name shown in listings.
	ProductName string `json:"product_name" db:"product_name"`

	Brand       string `json:"brand" db:"brand"`
	Model       string `json:"model" db:"model"`
	ProductType string `json:"product_type" db:"product_type"`

	// Quantity is the number of units on hand. Never negative.
	Quantity Quantity `json:"quantity" db:"quantity"`

	Description *string `json:"description,omitempty" db:"description"`
	ImageURL    *string `json:"image_url,omitempty" db:"image_url"`
}

// HasCode reports whether a UPC is already attached.
func (p Product) HasCode() bool {
	return p.Code != nil && strings.TrimSpace(*p.Code) != ""
}

// Quantity is a stock count decoded leniently: numbers and numeric strings
// are accepted, anything else (null, "NaN", negatives, garbage) decodes to 0.
type Quantity int

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*q = 0
			return nil
		}
		*q = Quantity(SanitizeQuantity(s))
		return nil
	}
	*q = Quantity(SanitizeQuantity(string(data)))
	return nil
}

// Int returns the quantity as a plain int.
func (q Quantity) Int() int {
	return int(q)
}

// SanitizeQuantity parses a stock count, falling back to 0 for anything
// that is not a finite number, is negative or does not fit an int.
// Fractions are truncated toward zero.
func SanitizeQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

// BrandSummary is one row of the top level of the stock hierarchy.
type BrandSummary struct {
	Brand         string `json:"brand"`
	ProductCount  int    `json:"product_count"`
	TotalQuantity int    `json:"total_quantity"`
}

// TypeSummary is one row of the product types available for a brand.
type TypeSummary struct {
	ProductType   string `json:"product_type"`
	ProductCount  int    `json:"product_count"`
	TotalQuantity int    `json:"total_quantity"`
}
