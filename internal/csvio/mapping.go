package csvio

import (
	"slices"
	"strings"

	"stockroom/internal/model"

	"github.com/shopspring/decimal"
)

// Logical product fields a CSV column can be mapped to.
const (
	FieldName      = "name"
	FieldSKU       = "sku"
	FieldCategory  = "category"
	FieldCostPrice = "cost_price"
	FieldSalePrice = "sale_price"
	FieldImageURL  = "image_url"
)

// Fields lists the logical fields in canonical column order. Export uses
// the same order, so an exported file maps onto itself.
var Fields = []string{FieldName, FieldSKU, FieldCategory, FieldCostPrice, FieldSalePrice, FieldImageURL}

// Common alternative headers, used only when the canonical one is absent.
var headerGuesses = map[string]string{
	FieldName:      "Name",
	FieldSKU:       "SKU",
	FieldCategory:  "Category",
	FieldCostPrice: "Cost",
	FieldSalePrice: "Price",
	FieldImageURL:  "Image",
}

// SuggestMapping returns the default field-to-header mapping for a file.
// Every field maps to its own name unless the file lacks that header and
// has the usual alternative instead.
func SuggestMapping(headers []string) map[string]string {
	mapping := make(map[string]string, len(Fields))
	for _, field := range Fields {
		mapping[field] = field
		if guess := headerGuesses[field]; slices.Contains(headers, guess) && !slices.Contains(headers, field) {
			mapping[field] = guess
		}
	}
	return mapping
}

// Map turns CSV rows into product payloads. The name field must be mapped
// to a header of the file. Rows whose trimmed name is empty are dropped.
// Optional fields are nil when unmapped or empty; prices that do not parse
// are null rather than zero.
func Map(table *Table, mapping map[string]string) ([]model.ProductInput, error) {
	nameKey := mapping[FieldName]
	if nameKey == "" || !slices.Contains(table.Headers, nameKey) {
		return nil, model.ErrNameMappingRequired
	}

	inputs := make([]model.ProductInput, 0, len(table.Rows))
	for _, row := range table.Rows {
		name := value(row, nameKey)
		if name == "" {
			continue
		}

		inputs = append(inputs, model.ProductInput{
			Name:      name,
			SKU:       optional(value(row, mapping[FieldSKU])),
			Category:  optional(value(row, mapping[FieldCategory])),
			CostPrice: ParseNumber(value(row, mapping[FieldCostPrice])),
			SalePrice: ParseNumber(value(row, mapping[FieldSalePrice])),
			ImageURL:  optional(value(row, mapping[FieldImageURL])),
		})
	}

	return inputs, nil
}

// ParseNumber parses a price after removing thousands separators and
// spaces. Empty or unparsable input is null.
func ParseNumber(s string) decimal.NullDecimal {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func value(row map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(row[key])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
