package stock

import "stockroom/internal/model"

// UnknownProduct labels movements whose product row is gone.
const UnknownProduct = "unknown product"

// Summarize totals a window of movements. Sale volume is reported as a
// positive number; the top product is the one with the largest absolute
// movement volume, ties going to the first seen.
func Summarize(rows []model.MovementView) model.MovementStats {
	stats := model.MovementStats{Total: len(rows), TopProduct: "-"}

	volume := make(map[string]int)
	var order []string

	for _, r := range rows {
		stats.Net += r.Change

		switch r.Reason {
		case model.ReasonRestock:
			stats.Restock += r.Change
		case model.ReasonSale:
			stats.Sale += abs(r.Change)
		default:
			stats.Adjust += r.Change
		}

		name := UnknownProduct
		if r.ProductName != nil {
			name = *r.ProductName
		}
		if _, seen := volume[name]; !seen {
			order = append(order, name)
		}
		volume[name] += abs(r.Change)
	}

	for _, name := range order {
		if volume[name] > stats.TopVolume {
			stats.TopProduct = name
			stats.TopVolume = volume[name]
		}
	}

	return stats
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
