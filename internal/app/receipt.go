package app

import (
	"strconv"

	"review_boost/internal/domain"
)

// RenderReceipt returns the display lines for an analysed receipt, or nil
// when there is nothing to show.
func RenderReceipt(r *domain.ReceiptAnalysis) []string {
	if r == nil {
		return nil
	}
	lines := []string{
		"Receipt Analysis",
		"Total Amount: " + money(r.TotalAmount),
		"Items:",
	}
	for _, it := range r.Items {
		lines = append(lines, "  - "+it.Name+" - "+money(it.Price))
	}
	if r.TaxAmount != nil && *r.TaxAmount != 0 {
		lines = append(lines, "Tax: "+money(*r.TaxAmount))
	}
	if r.Discounts != nil && *r.Discounts != 0 {
		lines = append(lines, "Discounts: "+money(*r.Discounts))
	}
	return lines
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}
