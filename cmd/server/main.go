package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-hospital/internal/api"
	"go-hospital/internal/auth"
	"go-hospital/internal/config"
	"go-hospital/internal/db"
	"go-hospital/internal/logger"
	"go-hospital/internal/metrics"
	"go-hospital/internal/patient"
	redisdb "go-hospital/internal/redis"
	"go-hospital/internal/seed"
	"go-hospital/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "hospital",
		Short:         "Patient records web application",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to the JSON config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(seedCmd(&configPath))
	root.AddCommand(userCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the bootstrap roles, accounts and sample patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer env.close()
			res, err := seed.Run(cmd.Context(), env.db, env.cfg.Seed.Password, env.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d roles, %d users, %d patients\n", res.Roles, res.Users, res.Patients)
			return nil
		},
	}
}

// environment is what every subcommand needs: config, logger and store.
type environment struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func bootstrap(configPath string) (*environment, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if err := db.Init(cfg, log); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &environment{cfg: cfg, log: log, db: db.DB}, nil
}

func (e *environment) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = e.log.Sync()
}

func sessionStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (auth.SessionStore, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Warn("No redis address configured, sessions are kept in memory")
		return auth.NewMemorySessionStore(), func() {}, nil
	}
	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Session store connected", zap.String("redis", cfg.Redis.Addr))
	return auth.NewRedisSessionStore(rdb), func() { rdb.Close() }, nil
}

func runServer(ctx context.Context, configPath string) error {
	env, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer env.close()
	cfg, log := env.cfg, env.log

	if cfg.Seed.Enabled {
		if _, err := seed.Run(ctx, env.db, cfg.Seed.Password, log); err != nil {
			return err
		}
	}

	sessions, closeSessions, err := sessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()
	if err := metrics.RegisterOnlineUsers(prometheus.DefaultRegisterer, sessions); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	idle := time.Duration(cfg.Server.SessionMinutes) * time.Minute
	authenticator := auth.NewAuthenticator(user.NewStore(env.db), sessions, cfg.Server.JWTSecret, idle)
	sqlDB, err := env.db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	r := api.SetupRouter(cfg, api.Deps{
		Patients: patient.NewGormRepository(env.db),
		Auth:     authenticator,
		Log:      log,
		Ping:     sqlDB.PingContext,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("database", cfg.Database.Driver))
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is done, then shuts it down. A listen failure is
// returned so deferred cleanup in the caller still runs.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", zap.Error(err))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
