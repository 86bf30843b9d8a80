package domain

type ReceiptItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ReceiptAnalysis is produced by the receipt uploader; read-only here.
type ReceiptAnalysis struct {
	TotalAmount float64       `json:"total_amount"`
	Items       []ReceiptItem `json:"items"`
	TaxAmount   *float64      `json:"tax_amount,omitempty"`
	Discounts   *float64      `json:"discounts,omitempty"`
}
