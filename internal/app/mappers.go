package app

import (
	"strconv"
	"strings"

	"review_boost/internal/domain"
)

/********** alias registries (single source of truth) **********/

var receiptAliases = map[string][]string{
	"total":     {"total_amount", "totalAmount", "total", "amount_total", "grand_total"},
	"tax":       {"tax_amount", "taxAmount", "tax", "vat"},
	"discounts": {"discounts", "discount", "discount_amount", "discountAmount"},
	"items":     {"items", "line_items", "lineItems"},
}

var itemAliases = map[string][]string{
	"name":  {"name", "description", "item", "title"},
	"price": {"price", "amount", "total", "unit_price"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0" or "$8.00").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			s = strings.TrimPrefix(s, "$")
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstSliceMaps(m map[string]any, paths ...string) []map[string]any {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

/********** receipt mapper **********/

// MapReceiptAnalysis turns the uploader's loosely shaped analysis payload into
// a ReceiptAnalysis. A payload wrapped as {"analysis": {...}} is unwrapped.
// Returns nil when nothing recognisable is present.
func MapReceiptAnalysis(p map[string]any) *domain.ReceiptAnalysis {
	if inner, ok := p["analysis"].(map[string]any); ok {
		p = inner
	}
	if len(p) == 0 {
		return nil
	}

	var ra domain.ReceiptAnalysis
	found := false
	if f := getFloatFlexible(p, receiptAliases["total"]...); f != nil {
		ra.TotalAmount = *f
		found = true
	}
	ra.TaxAmount = getFloatFlexible(p, receiptAliases["tax"]...)
	ra.Discounts = getFloatFlexible(p, receiptAliases["discounts"]...)

	// order as received
	for _, it := range firstSliceMaps(p, receiptAliases["items"]...) {
		item := domain.ReceiptItem{Name: firstNonEmptyAlias(it, itemAliases, "name")}
		if f := getFloatFlexible(it, itemAliases["price"]...); f != nil {
			item.Price = *f
		}
		if item.Name == "" && item.Price == 0 {
			continue
		}
		ra.Items = append(ra.Items, item)
	}

	if !found && len(ra.Items) == 0 && ra.TaxAmount == nil && ra.Discounts == nil {
		return nil
	}
	return &ra
}
