package cli

import (
	"context"
	"log"
	"time"

	"trivia-quest-service/internal/bank"
	"trivia-quest-service/internal/config"
	"trivia-quest-service/internal/infra/postgres"
	redisinfra "trivia-quest-service/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewImportBankCmd loads a bank JSON file into Postgres.
func NewImportBankCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import-bank <file>",
		Short: "Validate a question bank file and store it in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportBank(cmd.Context(), *configPath, args[0])
		},
	}
}

func runImportBank(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	b, err := bank.Load(file)
	if err != nil {
		return err
	}

	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrateDB(ctx, db); err != nil {
		return err
	}

	n, err := postgres.NewBankWriter(db).Import(ctx, b, time.Now().UTC())
	if err != nil {
		return err
	}
	log.Printf("imported %d levels from %s", n, file)

	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		// the cached copy would otherwise outlive the import until its ttl
		if err := redisinfra.NewBankRepository(client, nil, 0).Invalidate(ctx); err != nil {
			log.Printf("bank cache invalidation failed: %v", err)
		}
	}
	return nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
