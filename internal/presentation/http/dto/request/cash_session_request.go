package request

// OpenCashSessionRequest starts a drawer session
type OpenCashSessionRequest struct {
	OpeningCashCents int64  `json:"opening_cash_cents"`
	Notes            string `json:"notes" binding:"max=1000"`
}

// CloseCashSessionRequest records the counted drawer at the end of a shift
type CloseCashSessionRequest struct {
	ClosingCashCents *int64 `json:"closing_cash_cents" binding:"required"`
	ClosingNotes     string `json:"closing_notes" binding:"max=1000"`
}
