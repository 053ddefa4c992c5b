package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/app"
	"trivia-quest-service/internal/bank"
	"trivia-quest-service/internal/config"
	"trivia-quest-service/internal/infra/memory"
	pgloader "trivia-quest-service/internal/infra/postgres"
	redisinfra "trivia-quest-service/internal/infra/redis"
	"trivia-quest-service/internal/infra/sqlite"
	transport "trivia-quest-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia quest server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.BankLoader = bank.FileLoader{Path: cfg.Bank.Path}
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var banks bankCache
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}
	// a broken bank should stop the deploy, not the first player
	if _, err := banks.GetBank(ctx); err != nil {
		return err
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	saves, closeSaves, err := openStateStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeSaves()

	var errorStats analytics.ErrorStatsStore
	if redisClient != nil {
		errorStats = redisinfra.NewErrorStats(redisClient)
	} else {
		errorStats = memory.NewErrorStats()
	}

	var sinks []analytics.Sink
	if cfg.Analytics.Log {
		sinks = append(sinks, analytics.LogSink{})
	}
	if cfg.Analytics.ErrorStats {
		sinks = append(sinks, analytics.ErrorStatsSink{Store: errorStats})
	}
	dispatcher := analytics.NewDispatcher(cfg.Analytics.Buffer, 2*time.Second, sinks...)

	service := app.NewGameService(sessions, banks, saves, app.Options{
		Rules:       cfg.Game.Rules,
		SplashDelay: config.TTLDuration(cfg.Game.SplashDelay, 1500*time.Millisecond),
		RewardDelay: config.TTLDuration(cfg.Game.RewardDelay, 1500*time.Millisecond),
		Analytics:   dispatcher,
	})
	wsHandler := transport.NewWSHandler(service)
	mux := transport.NewMux(wsHandler, transport.NewStatsHandler(errorStats))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia quest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

wait:
	for {
		select {
		case <-reload:
			// sessions already running keep the bank they started with
			if err := reloadBank(ctx, banks); err != nil {
				log.Printf("bank reload failed: %v", err)
				continue
			}
			log.Println("question bank reloaded")
		case <-stop:
			log.Println("shutting down server...")
			break wait
		case <-ctx.Done():
			log.Println("context canceled, shutting down server...")
			break wait
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	dispatcher.Close()
	if n := dispatcher.Dropped(); n > 0 {
		log.Printf("analytics dropped %d events", n)
	}
	return err
}

// bankCache is a bank repository whose cached copy can be dropped.
type bankCache interface {
	app.BankRepository
	Invalidate(ctx context.Context) error
}

// reloadBank drops the cached bank and loads it again so a bad source is
// reported right away instead of on the next player's open.
func reloadBank(ctx context.Context, banks bankCache) error {
	if err := banks.Invalidate(ctx); err != nil {
		return err
	}
	_, err := banks.GetBank(ctx)
	return err
}

// openStateStore picks the save slot backend. The returned func releases it.
func openStateStore(cfg config.Config, client *redis.Client) (app.StateStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreRedis:
		ttl := config.TTLDuration(cfg.Store.TTL, 0)
		return redisinfra.NewStateStore(client, ttl), func() {}, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("close save store: %v", err)
			}
		}, nil
	default:
		return memory.NewStateStore(), func() {}, nil
	}
}
