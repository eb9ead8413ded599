package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pothikbondhu/internal/clients"
	intconfig "pothikbondhu/internal/config"
	intdb "pothikbondhu/internal/db"
	"pothikbondhu/internal/events"
	"pothikbondhu/internal/gazetteer"
	router "pothikbondhu/internal/http"
	h "pothikbondhu/internal/http/handlers"
	"pothikbondhu/internal/locator"
	"pothikbondhu/internal/metrics"
	"pothikbondhu/internal/services"
	"pothikbondhu/internal/utils"
)

const version = "0.3.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pothikbondhu",
		Short:         "Pothik-bondhu travel planning and guide booking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := intdb.Up
			if len(args) == 1 && args[0] == "down" {
				dir = intdb.Down
			}
			return migrate(dir)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "locate <text>",
		Short: "Resolve free text to a district and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := locator.New(gazetteer.MustLoad())
			loc, ok := l.Resolve(args[0])
			if !ok {
				return fmt.Errorf("no district found for %q", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(loc)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pothikbondhu version %s\n", version)
		},
	})

	return cmd
}

func setup() (intconfig.Env, *zap.Logger, error) {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return intconfig.Env{}, nil, err
	}
	logger, err := utils.InitLogger(env.LogLevel)
	if err != nil {
		return intconfig.Env{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return env, logger, nil
}

func migrate(dir intdb.Direction) error {
	env, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	return intdb.Migrate(db, dir)
}

func serve() error {
	env, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	var publisher events.Publisher = events.Nop{}
	if env.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(env.AMQPURL, env.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		publisher = p
	}

	g, err := gazetteer.Load()
	if err != nil {
		return err
	}

	hs := &h.Handlers{
		DB:              db,
		Gazetteer:       g,
		Locator:         locator.New(g),
		Routes:          clients.NewRoutingClient(env.RoutingBaseURL, env.ExternalTimeout),
		Weather:         clients.NewWeatherClient(env.WeatherBaseURL, env.ExternalTimeout),
		Tokens:          services.TokenIssuer{Secret: []byte(env.JWTSecret), TTL: env.JWTTTL},
		Events:          publisher,
		Metrics:         metrics.New(),
		ExternalTimeout: env.ExternalTimeout,
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, hs),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr), zap.Int("districts", g.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
