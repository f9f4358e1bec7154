package entity

// ReceiptHeader holds the venue header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt. Amounts are
// already formatted for the tenant's currency.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// ReceiptPayment is one captured tender on a receipt
type ReceiptPayment struct {
	Provider string `json:"provider"`
	Amount   string `json:"amount"`
	Change   string `json:"change,omitempty"`
}

// Receipt is a value object composed from a paid order at print time.
// It is not persisted.
type Receipt struct {
	Header   ReceiptHeader    `json:"header"`
	OrderNo  string           `json:"order_no"`
	Date     string           `json:"date"`
	TableRef string           `json:"table_ref,omitempty"`
	Items    []ReceiptItem    `json:"items"`
	Payments []ReceiptPayment `json:"payments,omitempty"`
	SubTotal string           `json:"sub_total"`
	Discount string           `json:"discount,omitempty"`
	TaxLabel string           `json:"tax_label"`
	Tax      string           `json:"tax"`
	Tip      string           `json:"tip,omitempty"`
	Total    string           `json:"total"`
	Paid     string           `json:"paid"`
	Due      string           `json:"due"`
}

// KitchenTicketItem is one line on a kitchen ticket
type KitchenTicketItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// KitchenTicket is printed when an order is routed to preparation
type KitchenTicket struct {
	OrderNo  string              `json:"order_no"`
	TableRef string              `json:"table_ref,omitempty"`
	Time     string              `json:"time"`
	Items    []KitchenTicketItem `json:"items"`
}

// CashCloseReport summarises a drawer session when it is closed
type CashCloseReport struct {
	StoreName string `json:"store_name"`
	OpenedAt  string `json:"opened_at"`
	ClosedAt  string `json:"closed_at"`
	Opening   string `json:"opening"`
	CashSales string `json:"cash_sales"`
	Expected  string `json:"expected"`
	Counted   string `json:"counted"`
	Variance  string `json:"variance"`
}
