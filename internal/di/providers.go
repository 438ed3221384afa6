package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/chat"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/graph"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/interfaces/http/rest"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/mcp"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/notify"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/observability"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/schema"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
)

// ProvideLogger creates the service logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(string(cfg.Environment), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideMetrics creates the Prometheus collector.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector("sot")
}

// ProvideTracing installs the OTLP tracer provider when an endpoint is configured.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, cfg.ServiceName, string(cfg.Environment), cfg.Tracing.Endpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideAWSConfig loads the default AWS configuration for the configured region.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Store.AWSRegion))
}

// ProvideStore opens the configured backend and wraps it with tracing.
// The memory backend loads the seed file and, when enabled, reloads it on change.
func ProvideStore(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (store.NodeStore, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		st      store.NodeStore
		cleanup = func() {}
	)

	switch cfg.Store.Backend {
	case config.StoreSQLite:
		sq, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		st = sq
		cleanup = func() {
			if err := sq.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}

	case config.StoreDynamoDB:
		st = store.NewDynamoDBStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, logger)

	default:
		threads, err := store.LoadSeedFile(cfg.Store.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		mem := store.NewMemoryStore(threads)
		st = mem
		logger.Info("Loaded seed data",
			zap.String("path", cfg.Store.SeedFile),
			zap.Int("threads", len(threads)),
			zap.Int("nodes", store.CountNodes(threads)),
		)
		if cfg.Store.WatchSeed && cfg.Store.SeedFile != "" {
			watcher, err := store.WatchSeedFile(cfg.Store.SeedFile, mem, logger)
			if err != nil {
				logger.Warn("seed hot reload disabled", zap.Error(err))
			} else {
				cleanup = watcher.Stop
			}
		}
	}

	return observability.TraceStore(st, nil), cleanup, nil
}

// ProvideGuardedExecutor builds the circuit-broken graph client, or nil
// when no graph endpoint is configured.
func ProvideGuardedExecutor(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *graph.GuardedExecutor {
	if cfg.Graph.Endpoint == "" {
		return nil
	}
	client := graph.NewGremlinClient(cfg.Graph.Endpoint, &http.Client{Timeout: cfg.Graph.Timeout + time.Second}, logger)

	bc := graph.DefaultBreakerConfig("graph")
	bc.Timeout = cfg.Graph.Timeout
	bc.FailureThreshold = cfg.Graph.FailureThreshold
	bc.OpenTimeout = cfg.Graph.OpenTimeout
	if cfg.Graph.MinRequests > 0 {
		bc.MinRequests = cfg.Graph.MinRequests
	}
	return graph.NewGuardedExecutor(client, bc, metrics, logger)
}

// ProvideExecutor exposes the guarded executor as an interface, keeping a
// missing executor as a true nil.
func ProvideExecutor(g *graph.GuardedExecutor) graph.Executor {
	if g == nil {
		return nil
	}
	return g
}

// ProvideSchemaCache builds the schema cache. Without a URL it is disabled.
func ProvideSchemaCache(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *schema.Cache {
	var source schema.Source
	if cfg.Schema.URL != "" {
		source = schema.NewHTTPSource(cfg.Schema.URL, &http.Client{Timeout: 10 * time.Second})
	}
	return schema.NewCache(source, cfg.Schema.TTL, metrics, logger)
}

// ProvideNotifier returns the EventBridge publisher, or nil without an event bus.
func ProvideNotifier(cfg *config.Config, awsCfg aws.Config, metrics *observability.Collector, logger *zap.Logger) analysis.Notifier {
	if cfg.Events.EventBus == "" {
		return nil
	}
	return notify.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.Events.EventBus, cfg.Events.RiskThreshold, metrics, logger)
}

// ProvideEngine creates the local analysis engine.
func ProvideEngine(
	cfg *config.Config,
	st store.NodeStore,
	cache *schema.Cache,
	executor graph.Executor,
	notifier analysis.Notifier,
	metrics *observability.Collector,
	logger *zap.Logger,
) *analysis.Engine {
	ac := analysis.DefaultConfig()
	ac.SimilarityThreshold = cfg.Analysis.SimilarityThreshold
	ac.ImpactThreshold = cfg.Analysis.ImpactThreshold
	ac.Sources = cfg.Sources

	opts := []analysis.Option{
		analysis.WithSchema(cache),
		analysis.WithObserver(metrics),
		analysis.WithLogger(logger),
	}
	if executor != nil {
		opts = append(opts, analysis.WithExecutor(executor))
	}
	if notifier != nil {
		opts = append(opts, analysis.WithNotifier(notifier))
	}
	return analysis.NewEngine(st, ac, opts...)
}

// ProvideStructuralScorer creates the graph-backed scorer with local fallback.
func ProvideStructuralScorer(executor graph.Executor, engine *analysis.Engine, metrics *observability.Collector, logger *zap.Logger) *analysis.StructuralScorer {
	return analysis.NewStructuralScorer(executor, engine, engine, metrics, logger)
}

// ProvideInterpreter creates the chat interpreter with component probes.
func ProvideInterpreter(engine *analysis.Engine, guarded *graph.GuardedExecutor, cache *schema.Cache, logger *zap.Logger) *chat.Interpreter {
	probes := []chat.Probe{
		func(context.Context) (string, string) {
			if guarded == nil {
				return "graph", "not configured"
			}
			return "graph", "circuit " + guarded.State()
		},
		func(context.Context) (string, string) {
			if !cache.Enabled() {
				return "schema", "not configured"
			}
			return "schema", "enabled"
		},
	}
	return chat.NewInterpreter(engine, logger, probes...)
}

// ProvideVerifier returns the Supabase token verifier, or nil when auth is off.
func ProvideVerifier(cfg *config.Config) (rest.TokenVerifier, error) {
	if !cfg.AuthEnabled() {
		return nil, nil
	}
	v, err := rest.NewSupabaseVerifier(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return v, nil
}

// ProvideHandlers creates the REST handlers.
func ProvideHandlers(engine *analysis.Engine, structural *analysis.StructuralScorer, interpreter *chat.Interpreter, cache *schema.Cache, logger *zap.Logger) *rest.Handlers {
	return rest.NewHandlers(engine, structural, interpreter, cache, logger)
}

// ProvideRouter wires the HTTP router.
func ProvideRouter(cfg *config.Config, h *rest.Handlers, verifier rest.TokenVerifier, metrics *observability.Collector, logger *zap.Logger) http.Handler {
	return rest.NewRouter(h, rest.RouterConfig{
		ServiceName: cfg.ServiceName,
		Verifier:    verifier,
		Metrics:     metrics,
	}, logger)
}

// ProvideMCPServer creates the MCP tool server.
func ProvideMCPServer(cfg *config.Config, engine *analysis.Engine, structural *analysis.StructuralScorer, interpreter *chat.Interpreter) *server.MCPServer {
	return mcp.NewServer(mcp.ServerConfig{
		Name:        cfg.MCP.Name,
		Version:     cfg.MCP.Version,
		Analyzer:    engine,
		Graph:       structural,
		Interpreter: interpreter,
	})
}
