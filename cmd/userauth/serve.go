package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"userauth/internal/config"
	"userauth/internal/domain"
	"userauth/internal/events"
	"userauth/internal/jwtsigner"
	"userauth/internal/mail"
	"userauth/internal/observability/metrics"
	"userauth/internal/service/impl"
	"userauth/internal/store"
	httpx "userauth/internal/transport/http"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := bootstrap()
			return runServe(cmd.Context(), cfg, logger, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(parent context.Context, cfg config.Config, logger *slog.Logger, migrateFirst bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(serviceName)

	gdb, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if migrateFirst {
		if err := store.Migrate(ctx, gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	st := store.New(gdb)
	if err := impl.EnsureRoles(ctx, st.Roles(), logger, domain.RoleUser); err != nil {
		return err
	}

	signer, ephemeral, err := jwtsigner.New(jwtsigner.Config{
		PrivateKeyB64: cfg.SigningKey,
		KeyID:         cfg.SigningKeyID,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		TTL:           cfg.AccessTTL,
	})
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	if ephemeral {
		logger.Warn("SIGNING_KEY not set, using an ephemeral key; tokens will not survive a restart")
	}

	dispatcher := mail.NewDispatcher(newSender(cfg, logger), mail.DispatcherConfig{
		From:      cfg.MailFrom,
		QueueSize: cfg.MailQueueSize,
		Workers:   cfg.MailWorkers,
	}, logger)
	// Retries outlive the shutdown signal so Close can drain the queue.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	ps := impl.NewPasswordServiceArgon2id()
	auth := impl.NewAuthServiceImpl(
		st,
		ps,
		impl.NewCredentialVerifier(st, ps),
		impl.NewTokenService(signer),
		dispatcher,
		events.LogPublisher{Logger: logger},
		logger,
		impl.Options{
			ActivationURL: cfg.ActivationURL,
			CodeLength:    cfg.ActivationCodeLength,
			TokenTTL:      cfg.ActivationTokenTTL,
		},
	)

	router := httpx.NewRouter(auth, signer, logger, httpx.RouterConfig{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxy:         cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("userauth listening", "addr", srv.Addr, "issuer", cfg.Issuer)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newSender(cfg config.Config, logger *slog.Logger) mail.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, activation emails are logged instead of sent")
		return mail.LogSender{Logger: logger}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
}
