package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/genzmobo-auth/auth"
	"github.com/jrsteele09/genzmobo-auth/internal/config"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/jrsteele09/genzmobo-auth/internal/logging"
	"github.com/jrsteele09/genzmobo-auth/mail"
	"github.com/jrsteele09/genzmobo-auth/otp"
	"github.com/jrsteele09/genzmobo-auth/server"
	"github.com/jrsteele09/genzmobo-auth/token"
	"github.com/jrsteele09/genzmobo-auth/token/revocation"
	"github.com/jrsteele09/genzmobo-auth/users/mongorepo"
	"github.com/rs/zerolog/log"
)

const (
	startupTimeout        = 10 * time.Second
	memoryCleanupInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Init(c.GetEnv(), c.GetLogLevel(), os.Stderr)
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	userRepo, err := mongorepo.Connect(c.GetMongoURI(), c.GetDatabaseName())
	if err != nil {
		return err
	}
	defer func() {
		if err := userRepo.Disconnect(context.Background()); err != nil {
			log.Err(err).Msg("mongo disconnect")
		}
	}()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	kv, err := openKV(runCtx, c)
	if err != nil {
		return err
	}
	defer kv.Close()

	httpServer, err := buildServer(c, userRepo, kv)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()
	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func buildServer(c config.Config, userRepo *mongorepo.Repo, kv kvstore.Store) (*http.Server, error) {
	signer, err := token.NewHMACSigner(c.GetJWTSecret(), c.GetJWTAlgorithm())
	if err != nil {
		return nil, err
	}
	issuer := token.NewIssuer(signer, token.WithExpiries(
		c.GetAccessTokenExpiry(),
		c.GetRefreshTokenExpiry(),
		c.GetResetTokenExpiry(),
	))
	revocations := revocation.New(kv, revocation.WithTimeout(c.GetRevocationTimeout()))
	verifier := token.NewVerifier(signer, revocations, token.WithFailClosed(c.GetRevocationFailClosed()))

	relay, err := mail.NewSMTPRelay(mail.SMTPConfig{
		Host:     c.GetSmtpHost(),
		Port:     c.GetSmtpPort(),
		Username: c.GetSmtpUser(),
		Password: c.GetSmtpPassword(),
		From:     c.GetEmailFrom(),
		FromName: c.GetEmailFromName(),
	})
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.Deps{
		Users:       userRepo,
		Issuer:      issuer,
		Verifier:    verifier,
		Revocations: revocations,
		Mail:        relay,
		Attempts: otp.NewLimiter(kv,
			otp.WithMaxAttempts(c.GetOTPMaxAttempts()),
			otp.WithLockout(c.GetOTPLockout()),
			otp.WithTimeout(c.GetRevocationTimeout()),
		),
	},
		auth.WithStrictRotation(c.GetStrictRefreshRotation()),
		auth.WithOTPExpiry(c.GetOTPExpiry()),
	)
	if err != nil {
		return nil, err
	}

	handler, err := server.New(c, server.Deps{
		Auth:     authService,
		Verifier: verifier,
		Health: map[string]server.Pinger{
			"mongo": userRepo,
			"kv":    revocations,
		},
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func openKV(ctx context.Context, c config.Config) (kvstore.Store, error) {
	switch c.GetKVBackend() {
	case config.KVBackendRedis:
		return kvstore.NewRedisStore(c.GetRedisURL())
	case config.KVBackendBadger:
		return kvstore.OpenBadgerStore(c.GetBadgerPath())
	case config.KVBackendMemory:
		log.Warn().Msg("in-memory KV backend: revocations and OTP attempts are lost on restart")
		store := kvstore.NewMemoryStore()
		go store.RunCleanup(ctx, memoryCleanupInterval)
		return store, nil
	}
	return nil, fmt.Errorf("unknown KV backend %q", c.GetKVBackend())
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
