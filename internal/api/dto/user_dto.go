package dto

import (
	"fmt"
	"time"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
)

// birthdateLayout is the wire format accepted for birthdates.
const birthdateLayout = "02/01/2006"

// AddressDTO mirrors the structured address on the wire.
type AddressDTO struct {
	Name            string         `json:"name"`
	AddressAddition *string        `json:"address_addition,omitempty"`
	ZipCode         string         `json:"zip_code"`
	City            string         `json:"city"`
	Country         string         `json:"country"`
	Lat             float64        `json:"lat"`
	Lng             float64        `json:"lng"`
	ExtraData       map[string]any `json:"extra_data,omitempty"`
}

// Domain converts the DTO into the domain representation.
func (a *AddressDTO) Domain() *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		Name:            a.Name,
		AddressAddition: a.AddressAddition,
		ZipCode:         a.ZipCode,
		City:            a.City,
		Country:         a.Country,
		Lat:             a.Lat,
		Lng:             a.Lng,
		ExtraData:       a.ExtraData,
	}
}

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        string      `json:"role"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Civility    *string     `json:"civility"`
	Phone       string      `json:"phone"`
	Address     *AddressDTO `json:"address"`
	CompanyName *string     `json:"company_name"`
	Siren       *string     `json:"siren"`
	BirthDate   *string     `json:"birthdate"`
}

// LoginRequest payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest payload carrying a verification token.
type VerifyRequest struct {
	Token string `json:"token"`
}

// EmailRequest payload for flows keyed only by email.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload confirming a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for partial profile updates.
type UpdateProfileRequest struct {
	FirstName   *string     `json:"first_name"`
	LastName    *string     `json:"last_name"`
	Civility    *string     `json:"civility"`
	Phone       *string     `json:"phone"`
	Address     *AddressDTO `json:"address"`
	CompanyName *string     `json:"company_name"`
	Siren       *string     `json:"siren"`
	BirthDate   *string     `json:"birthdate"`
}

// UserResponse is the profile representation returned to callers.
type UserResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Role          string          `json:"role"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Civility      *string         `json:"civility"`
	Phone         string          `json:"phone"`
	Address       *domain.Address `json:"address"`
	CompanyName   *string         `json:"company_name"`
	Siren         *string         `json:"siren"`
	BirthDate     *string         `json:"birthdate"`
	LastVisitedAt *time.Time      `json:"last_visited_at"`
	IsActive      bool            `json:"is_active"`
	IsVerified    bool            `json:"is_verified"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewUserResponse maps a domain user into the response shape.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Role:          user.Role,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Civility:      user.Civility,
		Phone:         user.Phone,
		Address:       user.Address,
		CompanyName:   user.CompanyName,
		Siren:         user.Siren,
		LastVisitedAt: user.LastVisitedAt,
		IsActive:      user.IsActive,
		IsVerified:    user.IsVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	if user.BirthDate != nil {
		formatted := user.BirthDate.Format(birthdateLayout)
		resp.BirthDate = &formatted
	}
	return resp
}

// ParseBirthDate parses a DD/MM/YYYY birthdate and rejects future dates.
func ParseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(birthdateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("invalid birthdate format, expected DD/MM/YYYY")
	}
	if parsed.After(time.Now()) {
		return nil, fmt.Errorf("birthdate cannot be in the future")
	}
	return &parsed, nil
}
