package server

import (
	"context"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/jrsteele09/genzmobo-auth/auth"
	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// UserInfo is the account summary returned by login.
type UserInfo struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Role        users.Role `json:"role"`
	IsPremium   bool       `json:"isPremium"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		reg, err := s.auth.Register(r.Context(), auth.RegisterParams{
			Email:       req.Email,
			Username:    req.Username,
			Password:    req.Password,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, map[string]any{
			"userId":       reg.UserID,
			"email":        reg.Email,
			"otpExpiresAt": reg.OTPExpiresAt,
		})
	}
}

func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, "Email verified successfully")
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		result, err := s.auth.Login(r.Context(), req.Identifier, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		s.setRefreshCookie(w, result.RefreshToken)
		writeData(w, map[string]any{
			"accessToken": result.AccessToken,
			"user": UserInfo{
				ID:          result.User.ID,
				Email:       result.User.Email,
				Username:    result.User.Username,
				DisplayName: result.User.DisplayName,
				Role:        result.User.Role,
				IsPremium:   result.User.IsPremium,
			},
		})
	}
}

// RefreshHandler accepts the refresh token from the cookie only.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.InvalidRequest, err))
			return
		}
		if len(body) > 0 {
			writeError(w, apperrors.Newf(apperrors.InvalidRequest, "Refresh token must be in cookie, not body"))
			return
		}

		var refreshToken string
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			refreshToken = cookie.Value
		}

		pair, err := s.auth.Refresh(r.Context(), refreshToken)
		if err != nil {
			writeError(w, err)
			return
		}

		s.setRefreshCookie(w, pair.RefreshToken)
		writeData(w, map[string]string{"accessToken": pair.AccessToken})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, apperrors.New(apperrors.InvalidPayload))
			return
		}
		if err := s.auth.Logout(r.Context(), claims); err != nil {
			writeError(w, err)
			return
		}
		s.clearRefreshCookie(w)
		writeMessage(w, "Logged out successfully")
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, "Password reset OTP sent to your email")
	}
}

func (s *Server) VerifyResetOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		resetToken, err := s.auth.VerifyResetOTP(r.Context(), req.Email, req.OTP)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, map[string]string{"resetToken": resetToken})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, "Password reset successful")
	}
}

// HealthHandler pings every registered dependency.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		names := make([]string, 0, len(s.health))
		for name := range s.health {
			names = append(names, name)
		}
		sort.Strings(names)

		components := make(map[string]string, len(names))
		healthy := true
		for _, name := range names {
			if err := s.health[name].Ping(ctx); err != nil {
				log.Err(err).Str("component", name).Msg("health check failed")
				components[name] = "unavailable"
				healthy = false
				continue
			}
			components[name] = "ok"
		}

		if !healthy {
			kind := apperrors.ServiceUnavailable
			writeJSON(w, kind.Status(), envelope{
				Success: false,
				Data:    map[string]any{"status": "unhealthy", "components": components},
				Error:   apperrors.MessageOf(kind),
				Code:    kind.Code(),
			})
			return
		}
		writeData(w, map[string]any{"status": "healthy", "components": components})
	}
}
