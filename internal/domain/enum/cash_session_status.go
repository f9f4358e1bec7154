package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CashSessionStatus represents whether a drawer session is still counting
type CashSessionStatus int

const (
	CashSessionStatusOpen   CashSessionStatus = 0
	CashSessionStatusClosed CashSessionStatus = 1
)

func (s CashSessionStatus) String() string {
	switch s {
	case CashSessionStatusOpen:
		return "OPEN"
	case CashSessionStatusClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("CashSessionStatus(%d)", int(s))
}

func (s CashSessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s CashSessionStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *CashSessionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = CashSessionStatusOpen
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = CashSessionStatus(v)
	case int:
		*s = CashSessionStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into CashSessionStatus", value)
	}
	return nil
}
