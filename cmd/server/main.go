// Package main is the fieldhouse server and admin CLI.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldhouse/internal/adapters/checkout"
	emailPkg "fieldhouse/internal/adapters/email"
	web "fieldhouse/internal/adapters/http"
	"fieldhouse/internal/adapters/leads"
	"fieldhouse/internal/adapters/storage"
	attendanceStore "fieldhouse/internal/adapters/storage/attendance"
	bookingStore "fieldhouse/internal/adapters/storage/booking"
	enrollmentStore "fieldhouse/internal/adapters/storage/enrollment"
	guardianStore "fieldhouse/internal/adapters/storage/guardian"
	memberStore "fieldhouse/internal/adapters/storage/member"
	programStore "fieldhouse/internal/adapters/storage/program"
	scheduleStore "fieldhouse/internal/adapters/storage/schedule"
	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "fieldhouse",
		Short:         "Club roster, schedule and booking server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd(), importMembersCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fieldhouse version %s\n", version)
		},
	})
	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// openDB opens and migrates the configured database.
func openDB(cfg config.Config) (*sql.DB, *storage.TimedDB, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	// Writers serialize on SQLite's lock; readers share the pool under WAL.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, storage.NewTimedDB(db, cfg.SlowQuery()), nil
}

func newStores(db storage.SQLDB) web.Stores {
	return web.Stores{
		MemberStore:     memberStore.NewSQLiteStore(db),
		ProgramStore:    programStore.NewSQLiteStore(db),
		EnrollmentStore: enrollmentStore.NewSQLiteStore(db),
		ScheduleStore:   scheduleStore.NewSQLiteStore(db),
		AttendanceStore: attendanceStore.NewSQLiteStore(db),
		BookingStore:    bookingStore.NewSQLiteStore(db),
		GuardianStore:   guardianStore.NewSQLiteStore(db),
	}
}

// newCollaborators wires only the services the environment configures.
// Fields stay nil otherwise so orchestrators see them as unconfigured.
func newCollaborators(cfg config.Config) web.Collaborators {
	var c web.Collaborators

	var sender emailPkg.Sender
	switch {
	case cfg.ResendKey != "":
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
	case !cfg.IsProduction():
		sender = emailPkg.NewNoopSender()
	default:
		slog.Warn("email_unconfigured", "reason", "no Resend key in production")
	}
	if sender != nil {
		c.Notifier = emailPkg.NewOperatorNotifier(sender, cfg.EmailFrom, cfg.OperatorInbox)
	}

	if cfg.LeadSystemURL != "" {
		client := leads.NewClient(cfg.LeadSystemURL, cfg.LeadSystemToken, cfg.UpstreamTimeout)
		c.Forwarder = client
		c.Unsubscriber = client
	} else {
		slog.Warn("lead_system_unconfigured")
	}

	if cfg.CheckoutURL != "" {
		c.Checkout = checkout.NewClient(cfg.CheckoutURL, cfg.UpstreamTimeout)
	} else {
		slog.Warn("checkout_unconfigured")
	}
	return c
}

// loadKey decodes a hex key, or generates an ephemeral one when none is set.
// Ephemeral keys invalidate every session and form on restart.
func loadKey(name, raw string) ([]byte, error) {
	if raw == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		slog.Warn("ephemeral_key", "key", name)
		return key, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", config.Prefix, name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s%s must be 32 bytes, got %d", config.Prefix, name, len(key))
	}
	return key, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	db, timed, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database_ready", "path", cfg.DBPath, "schema_version", storage.LatestSchemaVersion())

	stores := newStores(timed)

	if cfg.AdminPassword != "" {
		deps := orchestrators.CreateMemberDeps{MemberStore: stores.MemberStore}
		if err := orchestrators.ExecuteSeedAdmin(ctx, deps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	csrfKey, err := loadKey("CSRF_KEY", cfg.CSRFKey)
	if err != nil {
		return err
	}
	sessionKey, err := loadKey("SESSION_KEY", cfg.SessionKey)
	if err != nil {
		return err
	}

	handler := web.NewMux(stores, newCollaborators(cfg), web.Options{
		CSRFKey:       csrfKey,
		SessionKey:    sessionKey,
		Secure:        cfg.IsProduction(),
		DayOrder:      cfg.DayOrder,
		BusinessPhone: cfg.BusinessPhone,
		RateLimitRPS:  cfg.RateLimitRPS,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_listening", "addr", cfg.Addr, "version", version, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
