package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"gamerec-quiz-service/internal/app"
	"gamerec-quiz-service/internal/domain"
	pgloader "gamerec-quiz-service/internal/infra/postgres"
	pgmigrations "gamerec-quiz-service/internal/infra/postgres/migrations"
	infraredis "gamerec-quiz-service/internal/infra/redis"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL, sampleCatalog())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCatalogLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalogRepo := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessionStore, catalogRepo)

	progress, err := service.Start(ctx, "catalog-1", "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if progress.TotalQuestions != 2 {
		t.Fatalf("expected 2 questions, got %d", progress.TotalQuestions)
	}

	if _, err := service.Answer(ctx, "s1", 0); err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	progress, err = service.Answer(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	if !progress.Complete {
		t.Fatalf("expected complete quiz, got %+v", progress)
	}

	results, err := service.Results(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(results))
	}
	if results[0].Game.ID != "game-a" || results[0].Score != 100.0 {
		t.Fatalf("expected game-a at 100, got %+v", results[0])
	}
	if results[1].Game.ID != "game-b" || results[1].Score != 50.0 {
		t.Fatalf("expected game-b at 50, got %+v", results[1])
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func seedCatalog(t *testing.T, ctx context.Context, dsn string, catalog domain.Catalog) {
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

	data, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO catalogs (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, catalog.ID, string(data)); err != nil {
		t.Fatalf("insert catalog: %v", err)
	}
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
		ID: "catalog-1",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "What pace do you enjoy?",
				Options: []domain.Option{
					{Label: "Fast and loud", Tags: []string{"action"}},
					{Label: "Slow and thoughtful", Tags: []string{"puzzle"}},
				},
			},
			{
				ID:     "q2",
				Prompt: "Who do you play with?",
				Options: []domain.Option{
					{Label: "Friends", Tags: []string{"multiplayer"}},
					{Label: "Just me", Tags: []string{"singleplayer"}},
				},
			},
		},
		Games: []domain.Game{
			{ID: "game-a", Name: "Arena Blasters", Tags: []string{"action", "multiplayer"}},
			{ID: "game-b", Name: "Blast Runner", Tags: []string{"action"}},
			{ID: "game-c", Name: "Cipher Rooms", Tags: []string{"puzzle"}},
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
