package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoquiz/internal/app"
	"geoquiz/internal/config"
	"geoquiz/internal/domain"
	"geoquiz/internal/infra/memory"
	pgloader "geoquiz/internal/infra/postgres"
	infraredis "geoquiz/internal/infra/redis"
	transport "geoquiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const defaultEventLimit = 10

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz sync server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalog())
	if pool != nil {
		loader = pgloader.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.CatalogRepository
	if redisClient != nil {
		catalog = infraredis.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
	}

	eventLimit := cfg.Events.Limit
	if eventLimit <= 0 {
		eventLimit = defaultEventLimit
	}
	eventTTL := config.TTLDuration(cfg.Events.TTL, 5*time.Minute)
	presenceTimeout := config.TTLDuration(cfg.Presence.Timeout, 20*time.Minute)

	var games app.GameRepository
	var presence app.PresenceRepository
	var events app.EventLog
	if redisClient != nil {
		games = infraredis.NewGameStore(redisClient)
		presence = infraredis.NewPresenceStore(redisClient)
		events = infraredis.NewEventLog(redisClient, eventLimit)
	} else {
		games = memory.NewGameStore()
		presence = memory.NewPresenceStore()
		events = memory.NewEventLog(eventLimit)
	}

	lobbyService := app.NewLobbyService(games, events)
	gameService := app.NewGameService(games, events)
	sessionService := app.NewSessionService(games, presence, events, presenceTimeout, eventTTL)
	wsHandler := transport.NewWSHandler(lobbyService, gameService, sessionService, catalog)

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
		log.Printf("starting geoquiz service on :%s", finalPort)
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

// sampleCatalog provides a minimal pool for running without Postgres;
// real deployments seed the countries table and use the DB loader.
func sampleCatalog() []domain.Country {
	return []domain.Country{
		{Name: "France", Capital: "Paris", Code: "fr", Type: domain.TypeNation, FlagImage: "fr.png",
			NameDistractors: []string{"Belgium", "Switzerland", "Italy", "Spain"}, CapitalDistractors: []string{"Brussels", "Bern", "Rome", "Madrid"}},
		{Name: "Belgium", Capital: "Brussels", Code: "be", Type: domain.TypeNation, FlagImage: "be.png",
			NameDistractors: []string{"France", "Netherlands", "Luxembourg", "Germany"}, CapitalDistractors: []string{"Paris", "Amsterdam", "Luxembourg", "Berlin"}},
		{Name: "Italy", Capital: "Rome", Code: "it", Type: domain.TypeNation, FlagImage: "it.png",
			NameDistractors: []string{"France", "Spain", "Greece", "Malta"}, CapitalDistractors: []string{"Paris", "Madrid", "Athens", "Valletta"}},
		{Name: "Spain", Capital: "Madrid", Code: "es", Type: domain.TypeNation, FlagImage: "es.png",
			NameDistractors: []string{"Portugal", "France", "Italy", "Andorra"}, CapitalDistractors: []string{"Lisbon", "Paris", "Rome", "Andorra la Vella"}},
		{Name: "Germany", Capital: "Berlin", Code: "de", Type: domain.TypeNation, FlagImage: "de.png",
			NameDistractors: []string{"Belgium", "Austria", "Netherlands", "Poland"}, CapitalDistractors: []string{"Brussels", "Vienna", "Amsterdam", "Warsaw"}},
		{Name: "Greenland", Capital: "Nuuk", Code: "gl", Type: domain.TypeTerritory, FlagImage: "gl.png",
			NameDistractors: []string{"Iceland", "Faroe Islands"}, CapitalDistractors: []string{"Reykjavik", "Torshavn"}},
	}
}
