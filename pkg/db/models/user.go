package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is the auth-owned customer profile; this service only reads it.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Email       string         `gorm:"column:email;not null;uniqueIndex"`
	Phone       *string        `gorm:"column:phone"`
	Address     *string        `gorm:"column:address"`
	Country     *string        `gorm:"column:country"`
	Governorate *string        `gorm:"column:governorate"`
	Role        enums.UserRole `gorm:"column:role;type:user_role;not null;default:'user'"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// MissingProfileFields lists the shipping fields checkout requires that are blank.
func (u User) MissingProfileFields() []string {
	missing := []string{}
	if blank(u.Address) {
		missing = append(missing, "address")
	}
	if blank(u.Country) {
		missing = append(missing, "country")
	}
	if blank(u.Governorate) {
		missing = append(missing, "governorate")
	}
	return missing
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}
