package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rentora/contact-verify/pkg/authority"
	"github.com/rentora/contact-verify/pkg/challenge"
	"github.com/rentora/contact-verify/pkg/config"
	"github.com/rentora/contact-verify/pkg/delivery"
	"github.com/rentora/contact-verify/pkg/session"
	sessionapi "github.com/rentora/contact-verify/pkg/session/api"
	"github.com/rentora/contact-verify/pkg/verification"
	verificationapi "github.com/rentora/contact-verify/pkg/verification/api"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	store := newChallengeStore(cfg.Redis)

	gateway := delivery.NewGateway()
	if cfg.Email.Host != "" {
		emailNotifier, err := delivery.NewEmailNotifier(cfg.Email.ToSMTPConfig())
		if err != nil {
			slog.Error("Failed to create email notifier", "err", err)
			os.Exit(1)
		}
		if err := gateway.RegisterNotifier(challenge.ChannelEmail, emailNotifier); err != nil {
			slog.Error("Failed to register email notifier", "err", err)
			os.Exit(1)
		}
	}
	if cfg.Messaging.BaseURL != "" {
		messagingNotifier := delivery.NewMessagingNotifier(delivery.MessagingConfig{
			BaseURL: cfg.Messaging.BaseURL,
			Timeout: time.Duration(cfg.Messaging.TimeoutSeconds) * time.Second,
		})
		if err := gateway.RegisterNotifier(challenge.ChannelMessaging, messagingNotifier); err != nil {
			slog.Error("Failed to register messaging notifier", "err", err)
			os.Exit(1)
		}
	}

	disclose := cfg.Verification.DiscloseOnUnavailable && !cfg.App.IsProduction()
	if disclose {
		slog.Warn("Code disclosure on unavailable channels is enabled")
	}
	verifySvc := verification.NewService(store, gateway,
		verification.WithCooldown(cfg.Verification.Cooldown()),
		verification.WithCodeTTL(cfg.Verification.CodeTTL()),
		verification.WithDisclosure(disclose),
	)

	authorityClient := authority.NewClient(cfg.Authority.BaseURL,
		authority.WithTimeout(time.Duration(cfg.Authority.TimeoutSeconds)*time.Second),
	)

	if err := os.MkdirAll(cfg.Session.DataDir, 0o755); err != nil {
		slog.Error("Failed to create data dir", "dir", cfg.Session.DataDir, "err", err)
		os.Exit(1)
	}
	sessionRepo, err := session.NewBoltRepository(filepath.Join(cfg.Session.DataDir, "session.db"))
	if err != nil {
		slog.Error("Failed to open session store", "err", err)
		os.Exit(1)
	}
	defer sessionRepo.Close()

	var reconcilerOpts []session.ReconcilerOption
	if cfg.Session.ReconcileInterval() > 0 {
		reconcilerOpts = append(reconcilerOpts, session.WithInterval(cfg.Session.ReconcileInterval()))
	}
	reconciler := session.NewReconciler(sessionRepo, authorityClient, reconcilerOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reconciler.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/api/v1/verification", verificationapi.Handler(verificationapi.NewHandle(verifySvc)))
	r.Mount("/api/v1/session", sessionapi.Handler(sessionapi.NewHandle(reconciler)))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Starting contact verification service", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "err", err)
	}
}

// newChallengeStore selects the store backend. Redis when an address is
// configured, in-memory otherwise.
func newChallengeStore(cfg config.RedisConfig) challenge.Store {
	if cfg.Addr == "" {
		slog.Info("Using in-memory challenge store")
		return challenge.NewInMemStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	slog.Info("Using Redis challenge store", "addr", cfg.Addr)
	return challenge.NewRedisStore(client)
}
