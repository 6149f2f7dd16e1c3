package users

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

const (
	DefaultLanguage = "en"
	DefaultCurrency = "VND"
)

type Wallet struct {
	Balance           float64    `json:"balance"`
	Currency          string     `json:"currency"`
	TotalDeposited    float64    `json:"totalDeposited"`
	TotalSpent        float64    `json:"totalSpent"`
	LastTransactionAt *time.Time `json:"lastTransactionAt,omitempty"`
}

type Stats struct {
	TotalMoviesWatched int `json:"totalMoviesWatched"`
	TotalBooksRead     int `json:"totalBooksRead"`
	TotalComments      int `json:"totalComments"`
	TotalRatings       int `json:"totalRatings"`
}

// User is the account record. Only the auth flows write to it here; the
// profile fields are created with defaults and owned by other services.
type User struct {
	ID           string  `json:"id,omitempty"`
	Email        string  `json:"email,omitempty"`
	Username     string  `json:"username,omitempty"`
	PasswordHash string  `json:"-"`
	FullName     string  `json:"fullName,omitempty"`
	DisplayName  string  `json:"displayName,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	Role         Role    `json:"role,omitempty"`
	IsPremium    bool    `json:"isPremium"`
	Language     string  `json:"language,omitempty"`
	IsVerified   bool    `json:"isVerified"`

	OTPCode      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	Wallet         Wallet `json:"wallet"`
	Stats          Stats  `json:"stats"`
	ViolationCount int    `json:"violationCount"`
	Status         Status `json:"status,omitempty"`

	// Session fields. RefreshToken is the only refresh token accepted for
	// this user; CurrentTokenJTI is the id of the latest access token.
	RefreshToken    string     `json:"-"`
	CurrentTokenJTI string     `json:"-"`
	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeEmail is the stored and looked-up form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser returns an unverified account with default profile fields.
func NewUser(email, username, displayName, passwordHash string, now time.Time) *User {
	if displayName == "" {
		displayName = username
	}
	return &User{
		Email:        NormalizeEmail(email),
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     username,
		DisplayName:  displayName,
		Role:         RoleUser,
		Language:     DefaultLanguage,
		Wallet:       Wallet{Currency: DefaultCurrency},
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) OTPExpired(now time.Time) bool {
	return u.OTPExpiresAt == nil || now.After(*u.OTPExpiresAt)
}
