package web

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"

	badgerCache "tripsync/cache/badger"
	cacheT "tripsync/cache/cache"
	cacheMem "tripsync/cache/mem"
	"tripsync/config"
	dbt "tripsync/db/db"
	dbMem "tripsync/db/mem"
	"tripsync/db/pg"
	"tripsync/image"
	"tripsync/mq/gcppubsub"
	"tripsync/mq/goch"
	"tripsync/mq/mq"
	"tripsync/mq/rabbit"
	"tripsync/news"
)

// ServiceConfig selects the backends the server runs on. Dev mode swaps
// Postgres and Badger for in-memory implementations.
type ServiceConfig struct {
	IsDev    bool
	Port     string
	MqMode   mq.Mode
	CacheDir string
}

// Serve assembles the application and runs the HTTP server. It blocks until
// the listener fails.
func Serve(cfg ServiceConfig) error {
	config.LoadEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.IsDev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	gateway, closeGateway, err := buildGateway(cfg)
	if err != nil {
		return fmt.Errorf("failed to init trip gateway: %w", err)
	}
	defer closeGateway()

	cache, closeCache, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to init trip cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	bus, err := buildEventBus(ctx, cfg.MqMode)
	if err != nil {
		return fmt.Errorf("failed to init event bus: %w", err)
	}

	provider := image.NewPexelsClient(config.PexelsAPIKey())
	newsSvc := news.NewService(config.NewsAPIKey(), news.WithLogger(logger))

	app := NewApp(ctx, gateway, cache, bus, provider, newsSvc, logger)
	r := NewRouter(app)

	port := cfg.Port
	if port == "" {
		port = config.Env("PORT", "8080")
	}
	return r.Run(":" + port)
}

func buildGateway(cfg ServiceConfig) (dbt.TripGateway, func(), error) {
	if cfg.IsDev {
		return dbMem.NewInMemoryTripGateway(), func() {}, nil
	}
	gormDB, err := pg.InitPostgresGORM(pg.CreateDSN())
	if err != nil {
		return nil, nil, err
	}
	return pg.NewGORMTripGateway(gormDB), func() { pg.CloseGORM(gormDB) }, nil
}

func buildCache(cfg ServiceConfig) (cacheT.TripCache, func() error, error) {
	if cfg.IsDev {
		return cacheMem.NewInMemoryTripCache(), func() error { return nil }, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = config.Env("CACHE_DIR", "")
	}
	return badgerCache.Open(dir)
}

func buildEventBus(ctx context.Context, mode mq.Mode) (mq.TripEventBus, error) {
	switch mode {
	case mq.ModeRabbit:
		conn := rabbit.NewRabbitConnection(rabbit.CreateAmqpURL())
		return rabbit.NewRabbitTripEventBus(conn)
	case mq.ModeGCPPubSub:
		client, err := pubsub.NewClient(ctx, gcppubsub.GetGCPProjectID())
		if err != nil {
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		return gcppubsub.NewPubSubTripEventBus(ctx, client)
	default:
		return goch.NewGoChanTripEventBus(), nil
	}
}
