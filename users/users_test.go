package users_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "P@ss1234"},
		{name: "too short", password: "P@s1", wantErr: true},
		{name: "no uppercase", password: "p@ss1234", wantErr: true},
		{name: "no number", password: "P@ssword", wantErr: true},
		{name: "no special", password: "Pass1234", wantErr: true},
		{name: "unsupported special only", password: "Pass1234#", wantErr: true},
		{name: "max bytes", password: "P@ss1" + strings.Repeat("a", users.MaxPasswordBytes-5)},
		{name: "over max bytes", password: "P@ss1" + strings.Repeat("a", users.MaxPasswordBytes-4), wantErr: true},
		{name: "multibyte over max bytes", password: "P@ss1" + strings.Repeat("é", 34), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("P@ss1234")
	require.NoError(t, err)
	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("P@ss1234"))
	require.False(t, u.CheckPassword("P@ss12345"))
}

func TestPasswordHash_NoTruncationAlias(t *testing.T) {
	base := "P@ss1" + strings.Repeat("a", users.MaxPasswordBytes-5)
	require.NoError(t, users.ValidatePasswordStrength(base))
	require.Error(t, users.ValidatePasswordStrength(base+"-other-suffix"))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "a@x.com", users.NormalizeEmail("  A@X.Com "))
	require.Equal(t, "a@x.com", users.NewUser("A@X.COM", "alice", "", "hash", time.Now()).Email)
}

func TestNewUserDefaults(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	u := users.NewUser("a@x.com", "alice", "", "hash", now)

	require.Equal(t, "alice", u.FullName)
	require.Equal(t, "alice", u.DisplayName)
	require.Equal(t, users.RoleUser, u.Role)
	require.Equal(t, users.StatusActive, u.Status)
	require.Equal(t, users.DefaultCurrency, u.Wallet.Currency)
	require.False(t, u.IsVerified)
	require.Nil(t, u.Avatar)
}
