package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"trivia-quest-service/internal/app"
	"trivia-quest-service/internal/domain"
	"trivia-quest-service/internal/game"
	pgbank "trivia-quest-service/internal/infra/postgres"
	pgmigrations "trivia-quest-service/internal/infra/postgres/migrations"
	infraredis "trivia-quest-service/internal/infra/redis"
	"trivia-quest-service/internal/scheduler"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestCorrectAnswerEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgbank.NewBankLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	banks := infraredis.NewBankRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	saves := infraredis.NewStateStore(redisClient, time.Hour)
	clock := scheduler.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	service := app.NewGameService(sessions, banks, saves, app.Options{
		Rules:       game.DefaultRules(),
		SplashDelay: time.Second,
		RewardDelay: time.Second,
		Clock:       clock,
	})

	if _, err := service.Open(ctx, "u1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close("u1")

	st, err := service.Dispatch(ctx, "u1", domain.StartLevel{Level: 1})
	if err != nil {
		t.Fatalf("start level: %v", err)
	}
	if len(st.SessionQuestions) != 2 {
		t.Fatalf("expected both level 1 questions drawn from postgres, got %d", len(st.SessionQuestions))
	}
	clock.Advance(time.Second)

	st, err = service.Dispatch(ctx, "u1", domain.SelectOption{Index: st.PresentedAnswerIndex})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := service.Dispatch(ctx, "u1", domain.CheckAnswer{}); err != nil {
		t.Fatalf("check: %v", err)
	}
	st, err = service.Dispatch(ctx, "u1", domain.NextQuestion{})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if st.Screen != domain.ScreenReward || st.Coins != 1 {
		t.Fatalf("expected reward with one coin, got %s coins=%d", st.Screen, st.Coins)
	}

	saved, ok := saves.Load(ctx, "u1")
	if !ok || saved.Coins != 1 || saved.Screen != domain.ScreenReward {
		t.Fatalf("expected reward state saved in redis, got %+v ok=%v", saved, ok)
	}

	// a second import must show up once the cached copy is dropped
	updated := sampleBank()
	updated[1] = updated[1][:1]
	seedBank(t, ctx, pgURL, updated)
	if err := banks.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	b, err := banks.GetBank(ctx)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if len(b[1]) != 1 {
		t.Fatalf("expected reimported level with 1 question, got %d", len(b[1]))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedBank runs the migrations and imports b the way the import-bank command does.
func seedBank(t *testing.T, ctx context.Context, dsn string, b domain.Bank) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	n, err := pgbank.NewBankWriter(db).Import(ctx, b, time.Now().UTC())
	if err != nil {
		t.Fatalf("import bank: %v", err)
	}
	if n != len(b) {
		t.Fatalf("expected %d levels imported, got %d", len(b), n)
	}
}

func sampleBank() domain.Bank {
	q := func(id, text string, answer int, options ...string) domain.Question {
		return domain.Question{
			ID:     id,
			Text:   text,
			Kind:   domain.KindChoice,
			Choice: &domain.ChoiceBody{Options: options, AnswerIndex: answer},
		}
	}
	return domain.Bank{
		1: {
			q("l1-sum", "What is 2 + 2?", 1, "3", "4", "5"),
			q("l1-legs", "How many legs does a spider have?", 1, "6", "8", "10"),
		},
		2: {
			q("l2-sides", "How many sides does a hexagon have?", 0, "6", "5", "8"),
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
