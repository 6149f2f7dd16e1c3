package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	err := pkgerrors.Wrap(apperrors.New(apperrors.TokenRevoked), "verify")

	require.True(t, apperrors.Is(err, apperrors.TokenRevoked))
	require.False(t, apperrors.Is(err, apperrors.TokenExpired))
	require.Equal(t, apperrors.TokenRevoked, apperrors.KindOf(err))
	require.Equal(t, "Token revoked", apperrors.MessageOf(err))
}

func TestKindOf_Untagged(t *testing.T) {
	require.Equal(t, apperrors.Internal, apperrors.KindOf(fmt.Errorf("boom")))
	require.Equal(t, apperrors.Internal, apperrors.KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := apperrors.Wrap(apperrors.RevocationStoreUnavailable, cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "refused")
	require.Equal(t, "Revocation store unavailable", apperrors.MessageOf(err))
}

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		kind   apperrors.Kind
		status int
		code   string
	}{
		{apperrors.InvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{apperrors.TokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{apperrors.InvalidPayload, http.StatusInternalServerError, "INVALID_PAYLOAD"},
		{apperrors.TooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
		{apperrors.UserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.Equal(t, tt.status, tt.kind.Status())
			require.Equal(t, tt.code, tt.kind.Code())
		})
	}
}

func TestNewf(t *testing.T) {
	err := apperrors.Newf(apperrors.InvalidRequest, "field %s is required", "email")
	require.Equal(t, "field email is required", apperrors.MessageOf(err))
	require.True(t, apperrors.Is(err, apperrors.New(apperrors.InvalidRequest)))
}
