package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents an account role
type RoleType string

const (
	RoleUser  RoleType = "user"  // Regular member of the network
	RoleAdmin RoleType = "admin" // Can manage other accounts
)

const (
	passwordHashCost  = 12
	minPasswordLength = 8
	verifyTokenBytes  = 32
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID                string     `json:"id"`                        // Unique identifier for the account
	Email             string     `json:"email"`                     // Lower-cased, unique email address
	PhoneNumber       string     `json:"phonenumber,omitempty"`     // Optional contact number
	Role              RoleType   `json:"role"`                      // user or admin
	PasswordHash      string     `json:"-"`                         // Hashed version of the user's password - never serialize
	RefreshToken      string     `json:"-"`                         // Current live refresh token, empty when none
	VerifyToken       string     `json:"-"`                         // Present while the email is unverified
	Verified          bool       `json:"verify"`                    // Has the user verified their email
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"` // Set when the password changes after creation
	Active            bool       `json:"-"`                         // Soft-delete marker
	CreatedAt         time.Time  `json:"createdAt"`
}

// Update lists the account fields a store may change in place.
// Nil fields are left untouched.
type Update struct {
	PasswordHash      *string
	PasswordChangedAt *time.Time
	RefreshToken      *string
	VerifyToken       *string
	Verified          *bool
	Role              *RoleType
	Active            *bool
}

// Apply copies the non-nil fields of upd onto u
func (upd Update) Apply(u *User) {
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.PasswordChangedAt != nil {
		changed := *upd.PasswordChangedAt
		u.PasswordChangedAt = &changed
	}
	if upd.RefreshToken != nil {
		u.RefreshToken = *upd.RefreshToken
	}
	if upd.VerifyToken != nil {
		u.VerifyToken = *upd.VerifyToken
	}
	if upd.Verified != nil {
		u.Verified = *upd.Verified
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
}

// Public returns a copy of the account without any secret material
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	cp.RefreshToken = ""
	cp.VerifyToken = ""
	return &cp
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt (unix seconds). Sub-second precision is discarded.
func (u *User) ChangedPasswordAfter(issuedAt int64) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt < u.PasswordChangedAt.Unix()
}

// HasRole checks the account role against an allow-list
func (u *User) HasRole(roles ...RoleType) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("please provide a valid email")
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Not only whitespace
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password must not be blank")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a candidate password against the account hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// NewVerifyToken returns a random hex token for email verification
func NewVerifyToken() (string, error) {
	b := make([]byte, verifyTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
