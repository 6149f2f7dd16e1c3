package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Account
	RouteRegister  = "/api/auth/register"
	RouteVerifyOTP = "/api/auth/verify-otp"

	// Auth Routes - Session
	RouteLogin   = "/api/auth/login"
	RouteRefresh = "/api/auth/refresh"
	RouteLogout  = "/api/auth/logout"

	// Auth Routes - Password Management
	RouteForgotPassword = "/api/auth/forgot-password"
	RouteVerifyResetOTP = "/api/auth/verify-reset-otp"
	RouteResetPassword  = "/api/auth/reset-password"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)

// Refresh token cookie
const (
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/"
)
