package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentProvider identifies how money was tendered
type PaymentProvider int

const (
	PaymentProviderCash   PaymentProvider = 0
	PaymentProviderCard   PaymentProvider = 1
	PaymentProviderBank   PaymentProvider = 2
	PaymentProviderWallet PaymentProvider = 3
)

var paymentProviderNames = [...]string{"CASH", "CARD", "BANK", "WALLET"}

func (p PaymentProvider) String() string {
	if p < 0 || int(p) >= len(paymentProviderNames) {
		return fmt.Sprintf("PaymentProvider(%d)", int(p))
	}
	return paymentProviderNames[p]
}

// ParsePaymentProvider converts a provider name to a PaymentProvider
func ParsePaymentProvider(name string) (PaymentProvider, error) {
	for i, n := range paymentProviderNames {
		if n == name {
			return PaymentProvider(i), nil
		}
	}
	return 0, fmt.Errorf("unknown payment provider %q", name)
}

// GivesChange reports whether an over-tender is returned to the customer as change
func (p PaymentProvider) GivesChange() bool {
	switch p {
	case PaymentProviderCash:
		return true
	case PaymentProviderCard, PaymentProviderBank, PaymentProviderWallet:
		return false
	}
	return false
}

func (p PaymentProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PaymentProvider) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePaymentProvider(str)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p PaymentProvider) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *PaymentProvider) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentProviderCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*p = PaymentProvider(v)
	case int:
		*p = PaymentProvider(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentProvider", value)
	}
	return nil
}

// PaymentStatus is the state of a payment record
type PaymentStatus int

const (
	PaymentStatusCaptured PaymentStatus = 0
	PaymentStatusFailed   PaymentStatus = 1
	PaymentStatusVoid     PaymentStatus = 2
)

var paymentStatusNames = [...]string{"CAPTURED", "FAILED", "VOID"}

func (s PaymentStatus) String() string {
	if s < 0 || int(s) >= len(paymentStatusNames) {
		return fmt.Sprintf("PaymentStatus(%d)", int(s))
	}
	return paymentStatusNames[s]
}

// CountsTowardsBalance reports whether the payment reduces the outstanding balance
func (s PaymentStatus) CountsTowardsBalance() bool {
	switch s {
	case PaymentStatusCaptured:
		return true
	case PaymentStatusFailed, PaymentStatusVoid:
		return false
	}
	return false
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusCaptured
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentStatus", value)
	}
	return nil
}
