package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"gamerec-quiz-service/internal/app"
	"gamerec-quiz-service/internal/config"
	"gamerec-quiz-service/internal/domain"
	fileloader "gamerec-quiz-service/internal/infra/file"
	"gamerec-quiz-service/internal/infra/memory"
	pgloader "gamerec-quiz-service/internal/infra/postgres"
	redisinfra "gamerec-quiz-service/internal/infra/redis"
	transport "gamerec-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Loader preference: Postgres, then a catalog directory on disk, then
	// the built-in demo catalog.
	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalogs())
	if pool != nil {
		loader = pgloader.NewCatalogLoader(pool)
	} else if cfg.Catalog.Dir != "" {
		loader = fileloader.NewCatalogLoader(cfg.Catalog.Dir)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogRepo app.CatalogRepository
	if redisClient != nil {
		catalogRepo = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogRepo = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}
	service := app.NewQuizService(store, catalogRepo)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting gamerec quiz service on :%s", finalPort)
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

// sampleCatalogs provides a minimal demo catalog; production deployments point
// catalog.dir or postgres.url at real data.
func sampleCatalogs() map[string]domain.Catalog {
	return map[string]domain.Catalog{
		"steam-demo": {
			ID: "steam-demo",
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
				{ID: "cs2", Name: "Counter-Strike 2", AppID: 730, StoreURL: "https://store.steampowered.com/app/730", Tags: []string{"action", "multiplayer", "shooter"}},
				{ID: "hades", Name: "Hades", AppID: 1145360, StoreURL: "https://store.steampowered.com/app/1145360", Tags: []string{"action", "singleplayer", "roguelike"}},
				{ID: "portal2", Name: "Portal 2", AppID: 620, StoreURL: "https://store.steampowered.com/app/620", Tags: []string{"puzzle", "singleplayer"}},
				{ID: "overcooked2", Name: "Overcooked! 2", AppID: 728880, StoreURL: "https://store.steampowered.com/app/728880", Tags: []string{"multiplayer", "coop", "casual"}},
			},
		},
	}
}
