package request

import "github.com/google/uuid"

// Payment actions accepted by POST /orders/:id/payments
const (
	PaymentActionPay   = "pay"
	PaymentActionSplit = "split"
)

// PaymentActionRequest is either a capture ("pay") or a split preview ("split").
// Only the fields for the chosen action are read.
type PaymentActionRequest struct {
	Action string `json:"action" binding:"required,oneof=pay split"`

	// pay
	Provider    string `json:"provider"`
	AmountCents *int64 `json:"amount_cents"`
	TipCents    int64  `json:"tip_cents"`
	SplitIndex  *int   `json:"split_index"`

	// split
	Type    string        `json:"type"`
	Parts   int           `json:"parts"`
	Amounts []int64       `json:"amounts"`
	Items   [][]uuid.UUID `json:"items"`
}
