//go:build ignore

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateSampleCatalog writes a product CSV for trying the import flow.
// Headers use the common alternatives (Name, SKU, Price...) so the
// suggested mapping picks them up. Every tenth row has no SKU and every
// fifteenth has an unparsable cost, so a re-import shows which rows are
// updated in place and which are inserted again.
func main() {
	rows := flag.Int("rows", 450, "number of products to generate")
	out := flag.String("out", "data/samples/products.csv", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := createCatalogFile(*out, *rows); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d products\n", *out, *rows)
	fmt.Println("\nImport it with:")
	fmt.Printf("  curl -H 'Authorization: Bearer $TOKEN' -F file=@%s http://localhost:8080/api/import\n", *out)
}

var categories = []string{"Drinks", "Snacks", "Household", "Personal Care", ""}

func createCatalogFile(filePath string, rows int) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Name", "SKU", "Category", "Cost", "Price", "Image"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 1; i <= rows; i++ {
		sku := fmt.Sprintf("893%010d", i)
		if i%10 == 0 {
			sku = ""
		}
		cost := fmt.Sprintf("%d,%03d", 1+i%40, (i*7)%1000)
		if i%15 == 0 {
			cost = "n/a"
		}
		record := []string{
			fmt.Sprintf("Sample product %04d", i),
			sku,
			categories[i%len(categories)],
			cost,
			fmt.Sprintf("%d.%02d", 2+i%60, i%100),
			"",
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
