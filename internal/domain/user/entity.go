package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User represents a pet owner. Credentials are issued elsewhere.
type User struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	PhoneNumber *string
	Role        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactPhone returns the trimmed phone number, or "" when none is on file.
func (u *User) ContactPhone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return strings.TrimSpace(*u.PhoneNumber)
}
