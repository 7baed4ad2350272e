package domain

import "time"

// Civility values accepted on user profiles.
const (
	CivilityMr  = "Mr"
	CivilityMrs = "Mrs"
)

// User is the domain model for accounts managed by this service.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          string
	FirstName     string
	LastName      string
	Civility      *string
	Phone         string
	Address       *Address
	CompanyName   *string
	Siren         *string
	BirthDate     *time.Time
	LastVisitedAt *time.Time
	IsActive      bool
	IsVerified    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
