package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/config"
	"github.com/AnshRaj112/serenify-journal/internal/database"
	"github.com/AnshRaj112/serenify-journal/internal/handlers"
	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/metrics"
	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/AnshRaj112/serenify-journal/internal/routes"
	"github.com/AnshRaj112/serenify-journal/internal/services"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type stores struct {
	entries services.EntryStore
	users   services.UserStore
	close   func()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStores(cfg *config.Config) stores {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("Using in-memory storage; data is lost on restart")
		return stores{
			entries: database.NewMemoryEntryStore(),
			users:   database.NewMemoryUserStore(),
			close:   func() {},
		}
	}

	slog.Info("Connecting to PostgreSQL...")
	pg, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	if err := database.InitPostgresTables(pg); err != nil {
		slog.Error("Failed to initialize PostgreSQL tables", "error", err)
		os.Exit(1)
	}

	slog.Info("Connecting to MongoDB...")
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}

	entries := database.NewMongoEntryRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := entries.EnsureIndexes(ctx); err != nil {
		slog.Warn("Failed to ensure journal entry indexes", "error", err)
	}

	return stores{
		entries: entries,
		users:   database.NewPostgresUserRepository(pg),
		close:   func() { closeDatabases(pg, mongoClient) },
	}
}

func closeDatabases(pg *sql.DB, mongoClient *mongo.Client) {
	if err := pg.Close(); err != nil {
		slog.Error("PostgreSQL close error", "error", err)
	}
	if err := database.DisconnectMongo(mongoClient); err != nil {
		slog.Error("MongoDB disconnect error", "error", err)
	}
}

func setupRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURI == "" {
		slog.Warn("REDIS_URI not set; caching disabled and sessions kept in memory")
		return nil
	}
	slog.Info("Connecting to Redis...")
	client, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupPublisher picks the analytics transport. The returned closer flushes it.
func setupPublisher(cfg *config.Config, redisClient *redis.Client) (services.EventPublisher, func()) {
	switch cfg.EventTransport {
	case config.TransportRedis:
		return services.NewRedisPublisher(redisClient), func() {}
	case config.TransportKafka:
		pub := services.NewKafkaPublisher(cfg.Brokers)
		return pub, func() {
			if err := pub.Close(); err != nil {
				slog.Error("Kafka writer close error", "error", err)
			}
		}
	default:
		return services.NoopPublisher{}, func() {}
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.Environment, "port", cfg.Port,
		"storage", cfg.Storage, "event_transport", cfg.EventTransport)

	st := setupStores(cfg)
	defer st.close()

	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	publisher, closePublisher := setupPublisher(cfg, redisClient)
	events := services.NewAsyncPublisher(publisher, clock, m.Publisher)

	cache := services.NewCacheService(redisClient, m.Cache)
	sessions := services.NewSessionService(redisClient, clock)
	journal := services.NewJournalService(services.JournalServiceDeps{
		Entries:       st.entries,
		Users:         st.users,
		Classify:      services.Classify,
		Cache:         cache,
		Events:        events,
		Clock:         clock,
		Metrics:       m.Pipeline,
		Topic:         cfg.SentimentTopic,
		EntryCacheTTL: cfg.EntryCacheTTL,
	})
	users := services.NewUserService(st.users, st.entries, cache, cfg.DeleteUserEntries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := routes.Deps{
		Journal:        handlers.NewJournalHandler(journal),
		Auth:           handlers.NewAuthHandler(users, sessions),
		User:           handlers.NewUserHandler(users, sessions),
		Admin:          handlers.NewAdminHandler(users, cache),
		Metrics:        metrics.Handler(reg),
		Sessions:       sessions,
		IsAdmin:        cfg.IsAdmin,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	// The live feed only exists when observations travel over Redis Pub/Sub.
	if cfg.EventTransport == config.TransportRedis {
		feed := services.NewSentimentFeed(redisClient, cfg.SentimentTopic)
		go feed.Run(ctx)
		deps.SentimentWS = handlers.NewSentimentWebSocket(feed, cfg.AllowedOrigins)
	}

	// Production: SecurityHeaders → HostCheck → per-IP + login rate limiting
	// Non-production: Redis-based rate limit when Redis is available
	if cfg.IsProduction() {
		global, login := middleware.NewGlobalLimiter(), middleware.NewLoginLimiter()
		go global.Run(ctx)
		go login.Run(ctx)
		deps.Security = middleware.ProductionSecurity(cfg.AllowedHost, global, login)
		slog.Info("Production security enabled (security headers, per-IP + login rate limiting)")
	} else if redisClient != nil {
		deps.Security = []func(http.Handler) http.Handler{
			middleware.RedisRateLimit(redisClient, middleware.RateLimitMaxRequests, middleware.RateLimitWindow),
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := runGracefulShutdown(ctx, srv, events, closePublisher)

	slog.Info("Serenify journal backend running", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Server stopped")
}

// runGracefulShutdown drains the server once ctx is cancelled, then lets
// in-flight sentiment publishes finish before closing the transport. The
// returned channel closes when all of that is done; ListenAndServe returns
// as soon as draining starts, so main must wait on it.
func runGracefulShutdown(ctx context.Context, srv *http.Server, events *services.AsyncPublisher, closePublisher func()) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		events.Close()
		closePublisher()
		close(done)
	}()

	return done
}
