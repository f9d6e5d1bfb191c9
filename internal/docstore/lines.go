package docstore

import (
	"time"

	"github.com/angelmondragon/saree-storefront/internal/cart"
)

func findLine(lines []cart.Line, productID string) *cart.Line {
	for i := range lines {
		if lines[i].ProductID == productID {
			line := lines[i]
			return &line
		}
	}
	return nil
}

// upsertLine replaces the line for the same product in place, or appends.
func upsertLine(lines []cart.Line, line cart.Line, now time.Time) []cart.Line {
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			line.AddedAt = lines[i].AddedAt
			lines[i] = line
			return lines
		}
	}
	if line.AddedAt.IsZero() {
		line.AddedAt = now
	}
	return append(lines, line)
}

func removeLine(lines []cart.Line, productID string) []cart.Line {
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	return kept
}
