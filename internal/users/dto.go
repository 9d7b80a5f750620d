package users

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// UpdateProfileDTO is a partial update of the shipping profile.
type UpdateProfileDTO struct {
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	Governorate *string `json:"governorate" validate:"omitempty,max=100"`
}

func (d UpdateProfileDTO) columns() map[string]any {
	out := map[string]any{}
	set := func(column string, v *string) {
		if v != nil {
			out[column] = strings.TrimSpace(*v)
		}
	}
	set("phone", d.Phone)
	set("address", d.Address)
	set("country", d.Country)
	set("governorate", d.Governorate)
	return out
}

// ProfileDTO is the API view of a user profile.
type ProfileDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         *string   `json:"phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	Country       *string   `json:"country,omitempty"`
	Governorate   *string   `json:"governorate,omitempty"`
	Role          string    `json:"role"`
	MissingFields []string  `json:"missing_fields"`
}

// FromModel maps a user to ProfileDTO.
func FromModel(u *models.User) ProfileDTO {
	return ProfileDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Address:       u.Address,
		Country:       u.Country,
		Governorate:   u.Governorate,
		Role:          string(u.Role),
		MissingFields: u.MissingProfileFields(),
	}
}
