package csvio

import (
	"fmt"
	"io"
	"time"

	"stockroom/internal/model"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// DefaultExportLimit caps the number of exported rows.
const DefaultExportLimit = 50000

// ContentType is the media type of an export.
const ContentType = "text/csv; charset=utf-8"

// exportRow is one CSV line. Column order follows Fields.
type exportRow struct {
	Name      string `csv:"name"`
	SKU       string `csv:"sku"`
	Category  string `csv:"category"`
	CostPrice string `csv:"cost_price"`
	SalePrice string `csv:"sale_price"`
	ImageURL  string `csv:"image_url"`
}

// WriteProducts writes products as CSV with a header row. Null values are
// written as empty fields.
func WriteProducts(w io.Writer, products []model.Product) error {
	rows := make([]*exportRow, len(products))
	for i, p := range products {
		rows[i] = &exportRow{
			Name:      p.Name,
			SKU:       deref(p.SKU),
			Category:  deref(p.Category),
			CostPrice: formatPrice(p.CostPrice),
			SalePrice: formatPrice(p.SalePrice),
			ImageURL:  deref(p.ImageURL),
		}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ExportFilename names an export taken at t.
func ExportFilename(t time.Time) string {
	return "products_" + t.UTC().Format(time.DateOnly) + ".csv"
}

func formatPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
