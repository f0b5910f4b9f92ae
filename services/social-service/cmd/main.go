package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"

	// Interne
	"github.com/jupiterclapton/cenackle-social/pkg/logger"
	"github.com/jupiterclapton/cenackle-social/pkg/telemetry"
	"github.com/jupiterclapton/cenackle-social/services/social-service/config"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/primary/events"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/primary/rest"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/services"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/supervisor"
)

const serviceName = "social-service"

func main() {
	// 1. Config & Logger
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Env)
	slog.Info("🚀 Starting Social Service", "env", cfg.Env, "storage", cfg.Storage.Backend, "graph", cfg.Graph.Backend, "likes", cfg.Likes.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, serviceName, cfg.Env, cfg.Telemetry.OtelEndpoint)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure (Driven adapters)
	infra, err := connect(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.close()

	repos, err := buildRepositories(ctx, cfg, infra)
	if err != nil {
		slog.Error("Failed to build repositories", "error", err)
		infra.close()
		os.Exit(1)
	}

	var publisher ports.EventPublisher
	if infra.nc != nil {
		publisher = eventbroker.NewNatsPublisher(infra.nc, eventbroker.BreakerSettings{
			FailureThreshold: cfg.NATS.BreakerThreshold,
			Timeout:          cfg.NATS.BreakerTimeout,
		})
	}

	// 4. Core
	clock := domain.NewMonotonicClock()
	dispatcher := services.NewDispatcher(repos.notifications, publisher, clock, cfg.Dispatch.Timeout)
	graphSvc := services.NewGraphService(repos.graph, repos.accounts, dispatcher, clock)
	contentSvc := services.NewContentService(repos.posts, repos.likes, dispatcher, publisher, clock)
	notifSvc := services.NewNotificationService(repos.notifications)
	feedSvc := services.NewFeedService(graphSvc, contentSvc, services.FeedOptions{IncludeOwnPosts: cfg.Feed.IncludeOwnPosts})
	accountSvc := services.NewAccountService(repos.accounts, graphSvc)

	// 5. Primary adapters
	verifier, err := tokenVerifier(cfg)
	if err != nil {
		slog.Error("Failed to init JWT verifier", "error", err)
		infra.close()
		os.Exit(1)
	}
	if verifier == nil {
		slog.Warn("⚠️ No JWT public key configured, trusting X-User-ID header (local only)")
	}

	router := rest.NewRouter(rest.NewHandler(graphSvc, contentSvc, notifSvc, feedSvc), rest.RouterOptions{
		Verifier:    verifier,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		RateLimit:   cfg.HTTP.RateLimit,
		RateWindow:  cfg.HTTP.RateWindow,
	})
	newHTTPServer := func() supervisor.HTTPServer {
		return &http.Server{
			Addr:              ":" + cfg.HTTP.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	// gRPC : health check standard pour K8s/Docker + reflection pour grpcurl
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// 6. Supervision
	tree := supervisor.NewTree(log, supervisor.TreeConfig{ShutdownTimeout: cfg.HTTP.ShutdownTimeout})
	tree.AddAPIService(supervisor.NewHTTPService(newHTTPServer, cfg.HTTP.ShutdownTimeout))
	tree.AddAPIService(supervisor.NewGRPCService(grpcServer, net.JoinHostPort("", cfg.GRPC.Port)))
	if infra.nc != nil {
		// Les comptes arrivent par identity.user.registered : sans NATS, la table accounts reste vide
		tree.AddMessagingService(supervisor.NewConsumerService(infra.nc, events.NewEventHandler(accountSvc)))
	}

	slog.Info("📡 Social Service listening", "http_port", cfg.HTTP.Port, "grpc_port", cfg.GRPC.Port)
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Supervisor stopped", "error", err)
	}

	slog.Info("🛑 Shutting down server...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	slog.Info("👋 Server exited")
}

// infrastructure : connexions ouvertes selon les backends choisis (nil = non utilisé).
type infrastructure struct {
	db    *pgxpool.Pool
	neo   neo4j.DriverWithContext
	redis *redis.Client
	nc    *nats.Conn
}

func (i *infrastructure) close() {
	if i.nc != nil {
		_ = i.nc.Drain()
		i.nc = nil
	}
	if i.redis != nil {
		_ = i.redis.Close()
		i.redis = nil
	}
	if i.neo != nil {
		_ = i.neo.Close(context.Background())
		i.neo = nil
	}
	if i.db != nil {
		i.db.Close()
		i.db = nil
	}
}

func connect(ctx context.Context, cfg *config.Config) (*infrastructure, error) {
	infra := &infrastructure{}

	// Postgres
	needsPostgres := cfg.Storage.Backend == "postgres" || cfg.Graph.Backend == "postgres" || cfg.Likes.Backend == "postgres"
	if needsPostgres {
		dbConfig, err := pgxpool.ParseConfig(cfg.Storage.DBURL)
		if err != nil {
			return nil, fmt.Errorf("parse db config: %w", err)
		}
		// Instrumentation SQL (Pour voir les requêtes dans Jaeger)
		dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

		pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		infra.db = pool
		if err := pool.Ping(ctx); err != nil {
			infra.close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		slog.Info("✅ Connected to Postgres")
	}

	// Neo4j
	if cfg.Graph.Backend == "neo4j" {
		driver, err := neo4j.NewDriverWithContext(cfg.Graph.Neo4jURI, neo4j.BasicAuth(cfg.Graph.Neo4jUser, cfg.Graph.Neo4jPass, ""))
		if err != nil {
			infra.close()
			return nil, fmt.Errorf("create neo4j driver: %w", err)
		}
		infra.neo = driver

		vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := driver.VerifyConnectivity(vctx); err != nil {
			infra.close()
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
		slog.Info("✅ Connected to Neo4j")
	}

	// Redis
	if cfg.Likes.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Likes.RedisAddr})
		infra.redis = client
		if err := redisotel.InstrumentTracing(client); err != nil {
			slog.Warn("Redis tracing disabled", "error", err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			infra.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		slog.Info("✅ Connected to Redis")
	}

	// NATS (optionnel)
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
		if err != nil {
			infra.close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		infra.nc = nc
		slog.Info("✅ Connected to NATS")
	}

	return infra, nil
}

type repositories struct {
	graph         ports.GraphRepository
	accounts      ports.AccountDirectory
	posts         ports.PostRepository
	likes         ports.LikeRepository
	notifications ports.NotificationRepository
}

func buildRepositories(ctx context.Context, cfg *config.Config, infra *infrastructure) (*repositories, error) {
	repos := &repositories{}

	switch cfg.Storage.Backend {
	case "postgres":
		if err := repository.EnsurePostgresSchema(ctx, infra.db); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		repos.accounts = repository.NewPostgresAccountDirectory(infra.db)
		if infra.nc == nil {
			slog.Warn("⚠️ NATS disabled: accounts table is only fed by identity events, follows will 404 until it is populated")
		}
		repos.posts = repository.NewPostgresPostRepo(infra.db)
		repos.notifications = repository.NewPostgresNotificationRepo(infra.db)
	default:
		slog.Warn("⚠️ In-memory storage: data is lost on restart")
		repos.accounts = repository.OpenDirectory{}
		repos.posts = repository.NewMemoryPostRepo()
		repos.notifications = repository.NewMemoryNotificationRepo()
	}

	switch cfg.Graph.Backend {
	case "neo4j":
		repos.graph = repository.NewNeo4jGraphRepo(infra.neo)
	case "postgres":
		repos.graph = repository.NewPostgresGraphRepo(infra.db)
	default:
		repos.graph = repository.NewMemoryGraphRepo()
	}
	// Init Schema (Indexes)
	if err := repos.graph.EnsureSchema(ctx); err != nil {
		slog.Warn("Graph schema init failed (might be fine if already exists)", "error", err)
	}

	switch cfg.Likes.Backend {
	case "redis":
		repos.likes = repository.NewRedisLikeRepo(infra.redis)
	case "postgres":
		repos.likes = repository.NewPostgresLikeRepo(infra.db)
	default:
		repos.likes = repository.NewMemoryLikeRepo()
	}

	return repos, nil
}

func tokenVerifier(cfg *config.Config) (*rest.TokenVerifier, error) {
	pem, err := cfg.PublicKey()
	if err != nil {
		return nil, err
	}
	if len(pem) == 0 {
		return nil, nil
	}
	return rest.NewTokenVerifier(pem, cfg.Auth.Issuer)
}
