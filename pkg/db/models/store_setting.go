package models

import "time"

const SettingDeliveryFeeCents = "delivery_fee_cents"

// StoreSetting is a key/value row editable by admins.
type StoreSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
