package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrDuplicateEmail is returned by the store when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// User is a registered portal account. Email is the natural key and is compared
// case-insensitively. PasswordHash is a bcrypt hash; SessionTokenHash is the SHA-256 of
// the current bearer token, empty when logged out.
type User struct {
	ID               int64
	Username         string
	Email            string
	Phone            string
	PasswordHash     string
	SessionTokenHash string
	Org              string
	ProfilePic       string
	AppliedCount     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeEmail trims and lower-cases an email for lookups and ledger keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the fields required for persistence.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password is required")
	}
	return nil
}

// Profile is the JSON view of a user. ProfilePic is null until a picture is uploaded.
type Profile struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Org          string  `json:"org"`
	ProfilePic   *string `json:"profile_pic"`
	AppliedCount int     `json:"applied_count"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	p := Profile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		Org:          u.Org,
		AppliedCount: u.AppliedCount,
	}
	if u.ProfilePic != "" {
		pic := u.ProfilePic
		p.ProfilePic = &pic
	}
	return p
}
