package mongorepo

import (
	"time"

	"github.com/jrsteele09/genzmobo-auth/users"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type walletDoc struct {
	Balance           float64    `bson:"balance"`
	Currency          string     `bson:"currency"`
	TotalDeposited    float64    `bson:"totalDeposited"`
	TotalSpent        float64    `bson:"totalSpent"`
	LastTransactionAt *time.Time `bson:"lastTransactionAt"`
}

type statsDoc struct {
	TotalMoviesWatched int `bson:"totalMoviesWatched"`
	TotalBooksRead     int `bson:"totalBooksRead"`
	TotalComments      int `bson:"totalComments"`
	TotalRatings       int `bson:"totalRatings"`
}

// userDoc is the stored shape of a user. Field names match the documents
// the other platform services read; the hash lives under passwordHash.
type userDoc struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Email           string        `bson:"email"`
	Username        string        `bson:"username"`
	PasswordHash    string        `bson:"passwordHash"`
	FullName        string        `bson:"fullName"`
	DisplayName     string        `bson:"displayName"`
	Avatar          *string       `bson:"avatar"`
	Role            string        `bson:"role"`
	IsPremium       bool          `bson:"isPremium"`
	Language        string        `bson:"language"`
	IsVerified      bool          `bson:"isVerified"`
	OTPCode         *string       `bson:"otpCode"`
	OTPExpiresAt    *time.Time    `bson:"otpExpiresAt"`
	Wallet          walletDoc     `bson:"wallet"`
	Stats           statsDoc      `bson:"stats"`
	ViolationCount  int           `bson:"violationCount"`
	Status          string        `bson:"status"`
	RefreshToken    *string       `bson:"refreshToken,omitempty"`
	CurrentTokenJTI *string       `bson:"currentTokenJti,omitempty"`
	LastActivityAt  *time.Time    `bson:"lastActivityAt,omitempty"`
	LastLoginAt     *time.Time    `bson:"lastLoginAt"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

func toDoc(u *users.User) *userDoc {
	return &userDoc{
		Email:        users.NormalizeEmail(u.Email),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		DisplayName:  u.DisplayName,
		Avatar:       u.Avatar,
		Role:         string(u.Role),
		IsPremium:    u.IsPremium,
		Language:     u.Language,
		IsVerified:   u.IsVerified,
		OTPCode:      optional(u.OTPCode),
		OTPExpiresAt: u.OTPExpiresAt,
		Wallet: walletDoc{
			Balance:           u.Wallet.Balance,
			Currency:          u.Wallet.Currency,
			TotalDeposited:    u.Wallet.TotalDeposited,
			TotalSpent:        u.Wallet.TotalSpent,
			LastTransactionAt: u.Wallet.LastTransactionAt,
		},
		Stats:           statsDoc(u.Stats),
		ViolationCount:  u.ViolationCount,
		Status:          string(u.Status),
		RefreshToken:    optional(u.RefreshToken),
		CurrentTokenJTI: optional(u.CurrentTokenJTI),
		LastActivityAt:  u.LastActivityAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (d *userDoc) toUser() *users.User {
	return &users.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		DisplayName:  d.DisplayName,
		Avatar:       d.Avatar,
		Role:         users.Role(d.Role),
		IsPremium:    d.IsPremium,
		Language:     d.Language,
		IsVerified:   d.IsVerified,
		OTPCode:      deref(d.OTPCode),
		OTPExpiresAt: d.OTPExpiresAt,
		Wallet: users.Wallet{
			Balance:           d.Wallet.Balance,
			Currency:          d.Wallet.Currency,
			TotalDeposited:    d.Wallet.TotalDeposited,
			TotalSpent:        d.Wallet.TotalSpent,
			LastTransactionAt: d.Wallet.LastTransactionAt,
		},
		Stats:           users.Stats(d.Stats),
		ViolationCount:  d.ViolationCount,
		Status:          users.Status(d.Status),
		RefreshToken:    deref(d.RefreshToken),
		CurrentTokenJTI: deref(d.CurrentTokenJTI),
		LastActivityAt:  d.LastActivityAt,
		LastLoginAt:     d.LastLoginAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
