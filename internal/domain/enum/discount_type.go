package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DiscountType represents how an order-level discount is applied
type DiscountType int

const (
	DiscountTypeNone    DiscountType = 0
	DiscountTypeFixed   DiscountType = 1 // value is minor units
	DiscountTypePercent DiscountType = 2 // value is basis points
)

func (t DiscountType) String() string {
	names := [...]string{"NONE", "FIXED", "PERCENT"}
	if int(t) < 0 || int(t) >= len(names) {
		return "NONE"
	}
	return names[t]
}

// ParseDiscountType converts a discount type name to a DiscountType
func ParseDiscountType(name string) (DiscountType, error) {
	switch name {
	case "NONE", "":
		return DiscountTypeNone, nil
	case "FIXED":
		return DiscountTypeFixed, nil
	case "PERCENT":
		return DiscountTypePercent, nil
	}
	return 0, fmt.Errorf("unknown discount type %q", name)
}

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t DiscountType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	if value == nil {
		*t = DiscountTypeNone
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = DiscountType(v)
	case int:
		*t = DiscountType(v)
	}
	return nil
}
