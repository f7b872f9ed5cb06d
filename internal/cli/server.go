package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/config"
	"github.com/meisofts/BrainStorm/internal/infra/memory"
	"github.com/meisofts/BrainStorm/internal/infra/postgres"
	infraredis "github.com/meisofts/BrainStorm/internal/infra/redis"
	transport "github.com/meisofts/BrainStorm/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand that starts the API server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz scoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store app.EntityStore
	if cfg.Postgres.URL != "" {
		if err := postgres.WaitReady(ctx, cfg.Postgres.URL, 30*time.Second); err != nil {
			return err
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pgStore := postgres.NewStore(cfg.Postgres.URL)
		defer pgStore.Close()
		store = pgStore
	} else {
		// Demo mode: in-memory store seeded with a sample quiz.
		log.Printf("no postgres url configured, running with in-memory store")
		store = seedDemoStore(memory.NewStore())
	}

	var cache *infraredis.LeaderboardCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Leaderboard.TTL, 10*time.Minute)
		cache = infraredis.NewLeaderboardCache(client, ttl)
	}

	engine := app.NewEngine(store)
	var service *app.SessionService
	var snapshots transport.SnapshotReader
	if cache != nil {
		service = app.NewSessionService(engine, cache)
		snapshots = cache
	} else {
		service = app.NewSessionService(engine, nil)
	}

	handler := transport.NewHandler(service, snapshots)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz scoring service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
