package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AddressList is a JSON-encoded list of canonical addresses.
type AddressList []string

func (l AddressList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *AddressList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported column type for address list")
	}
}

// SafeAddress is created exactly once, at the first successful on-chain
// verification of a Safe. Owners and IsOg are not refreshed afterwards.
type SafeAddress struct {
	Address   string      `gorm:"primaryKey;size:42" json:"address"`
	Owners    AddressList `gorm:"type:json;not null" json:"owners"`
	IsOg      bool        `gorm:"not null;default:false" json:"isOg"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (SafeAddress) TableName() string {
	return "safe_addresses"
}
