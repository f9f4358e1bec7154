package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderItemStatus represents the kitchen lifecycle of a single line item
type OrderItemStatus int

const (
	OrderItemStatusSent       OrderItemStatus = 0
	OrderItemStatusInProgress OrderItemStatus = 1
	OrderItemStatusReady      OrderItemStatus = 2
	OrderItemStatusServed     OrderItemStatus = 3
	OrderItemStatusVoid       OrderItemStatus = 4
)

var orderItemStatusNames = [...]string{"SENT", "IN_PROGRESS", "READY", "SERVED", "VOID"}

func (s OrderItemStatus) String() string {
	if s < 0 || int(s) >= len(orderItemStatusNames) {
		return fmt.Sprintf("OrderItemStatus(%d)", int(s))
	}
	return orderItemStatusNames[s]
}

// ParseOrderItemStatus converts a status name to an OrderItemStatus
func ParseOrderItemStatus(name string) (OrderItemStatus, error) {
	for i, n := range orderItemStatusNames {
		if n == name {
			return OrderItemStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order item status %q", name)
}

// IsTerminal reports whether the item can no longer change
func (s OrderItemStatus) IsTerminal() bool {
	switch s {
	case OrderItemStatusServed, OrderItemStatusVoid:
		return true
	case OrderItemStatusSent, OrderItemStatusInProgress, OrderItemStatusReady:
		return false
	}
	return true
}

// IsActive reports whether the item counts towards totals and the kitchen
func (s OrderItemStatus) IsActive() bool {
	return s != OrderItemStatusVoid
}

// Next returns the single forward successor on the linear path, if any
func (s OrderItemStatus) Next() (OrderItemStatus, bool) {
	switch s {
	case OrderItemStatusSent:
		return OrderItemStatusInProgress, true
	case OrderItemStatusInProgress:
		return OrderItemStatusReady, true
	case OrderItemStatusReady:
		return OrderItemStatusServed, true
	case OrderItemStatusServed, OrderItemStatusVoid:
		return s, false
	}
	return s, false
}

// CanTransitionTo allows exactly one step forward, or VOID from any
// non-terminal state.
func (s OrderItemStatus) CanTransitionTo(next OrderItemStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderItemStatusVoid {
		return true
	}
	succ, ok := s.Next()
	return ok && succ == next
}

// AtLeast reports whether s has reached target on the linear path
func (s OrderItemStatus) AtLeast(target OrderItemStatus) bool {
	if s == OrderItemStatusVoid || target == OrderItemStatusVoid {
		return s == target
	}
	return s >= target
}

func (s OrderItemStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderItemStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseOrderItemStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s OrderItemStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderItemStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderItemStatusSent
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderItemStatus(v)
	case int32:
		*s = OrderItemStatus(v)
	case int:
		*s = OrderItemStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderItemStatus", value)
	}
	return nil
}
