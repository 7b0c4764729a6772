package harvest

// the json shapes below are a protocol contract: checkpoint files
// written by earlier runs must keep loading, so field names stay
// camelCase and nothing gets removed lightly.

// YearLedger tracks which order ids of a year have been discovered.
type YearLedger struct {
	Year int `json:"year"`
	// TotalOrders is the server-reported order count for the year,
	// fixed once known.
	TotalOrders int `json:"totalOrders"`
	// OrderIds in discovery order, no duplicates.
	OrderIds []string `json:"orderIds"`
}

// IsComplete reports whether every order id the storefront reported
// for the year has been discovered. a complete ledger short-circuits
// the listing harvest entirely.
func (l YearLedger) IsComplete() bool {
	return l.TotalOrders > 0 && len(l.OrderIds) == l.TotalOrders
}

// OrderRecord is one fully collected order. records are append-only:
// once written to the detail ledger they are never modified.
type OrderRecord struct {
	Id                string      `json:"id"`
	Date              string      `json:"date"`
	TotalAmount       string      `json:"totalAmount"`
	ShippingName      string      `json:"shippingName"`
	ShippingAddress   string      `json:"shippingAddress"`
	PaymentInstrument string      `json:"paymentInstrument"`
	Items             []OrderItem `json:"items"`
	InvoiceLinks      []Link      `json:"invoiceLinks"`
}

type OrderItem struct {
	// OrderId back-references the owning record.
	OrderId    string `json:"orderId"`
	Title      string `json:"title"`
	Asin       string `json:"asin"`
	Merchant   string `json:"merchant"`
	MerchantId string `json:"merchantId"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
}

type Link struct {
	Name string `json:"name"`
	Url  string `json:"url"`
}
