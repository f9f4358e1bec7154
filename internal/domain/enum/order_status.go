package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus int

const (
	OrderStatusOpen       OrderStatus = 0
	OrderStatusInKitchen  OrderStatus = 1
	OrderStatusReady      OrderStatus = 2
	OrderStatusForPayment OrderStatus = 3
	OrderStatusPaid       OrderStatus = 4
	OrderStatusCancelled  OrderStatus = 5
)

var orderStatusNames = [...]string{"OPEN", "IN_KITCHEN", "READY", "FOR_PAYMENT", "PAID", "CANCELLED"}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(orderStatusNames) {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return orderStatusNames[s]
}

// ParseOrderStatus converts a status name to an OrderStatus
func ParseOrderStatus(name string) (OrderStatus, error) {
	for i, n := range orderStatusNames {
		if n == name {
			return OrderStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", name)
}

// IsTerminal reports whether no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusPaid, OrderStatusCancelled:
		return true
	case OrderStatusOpen, OrderStatusInKitchen, OrderStatusReady, OrderStatusForPayment:
		return false
	}
	return true
}

// CanTransitionTo reports whether next is a legal successor of s.
// Cancellation is only possible before the bill is requested.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusOpen:
		return next == OrderStatusInKitchen || next == OrderStatusCancelled
	case OrderStatusInKitchen:
		return next == OrderStatusReady || next == OrderStatusCancelled
	case OrderStatusReady:
		return next == OrderStatusForPayment || next == OrderStatusCancelled
	case OrderStatusForPayment:
		return next == OrderStatusPaid
	case OrderStatusPaid, OrderStatusCancelled:
		return false
	}
	return false
}

// AcceptsItems reports whether line items may still be added
func (s OrderStatus) AcceptsItems() bool {
	switch s {
	case OrderStatusOpen, OrderStatusInKitchen:
		return true
	case OrderStatusReady, OrderStatusForPayment, OrderStatusPaid, OrderStatusCancelled:
		return false
	}
	return false
}

// AcceptsPayment reports whether a settlement may be applied in this state.
// A READY order is moved to FOR_PAYMENT by its first payment.
func (s OrderStatus) AcceptsPayment() bool {
	switch s {
	case OrderStatusReady, OrderStatusForPayment:
		return true
	case OrderStatusOpen, OrderStatusInKitchen, OrderStatusPaid, OrderStatusCancelled:
		return false
	}
	return false
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusOpen
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int32:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}
	return nil
}
