package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/jrsteele09/genzmobo-auth/auth"
	"github.com/jrsteele09/genzmobo-auth/internal/config"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the HTTP layer calls into.
type Deps struct {
	Auth     *auth.Service
	Verifier auth.TokenVerifier
	// Health maps a component name ("mongo", "kv") to its pinger.
	Health map[string]Pinger
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	auth     *auth.Service
	verifier auth.TokenVerifier
	health   map[string]Pinger
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("[Server New] token verifier is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		auth:     deps.Auth,
		verifier: deps.Verifier,
		health:   deps.Health,
	}

	s.initRoutes()
	s.logRoutes()

	// CORS wraps the whole mux so preflight requests are answered before
	// method-qualified patterns reject OPTIONS.
	s.handler = cors.Handler(cors.Options{
		AllowedOrigins:   config.GetAllowedOrigins(),
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           86400,
	})(s.mux)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
