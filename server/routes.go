package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// ACCOUNT
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.RateLimit(5, time.Hour))...))
	s.RegisterRouteHandler("POST "+RouteVerifyOTP, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware(s.RateLimit(10, time.Hour))...))

	// SESSION
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimit(10, 5*time.Minute))...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))

	// PASSWORD
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware(s.RateLimit(100, time.Hour))...))
	s.RegisterRouteHandler("POST "+RouteVerifyResetOTP, ChainMiddleware(s.VerifyResetOTPHandler(), s.APIMiddleware(s.RateLimit(10, time.Hour))...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware(s.RateLimit(10, time.Hour))...))

	// OPERATIONS
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware(s.RateLimit(5, time.Minute))...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
