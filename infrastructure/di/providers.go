package di

import (
	"context"
	"fmt"
	stdos "os"
	"path/filepath"

	"github.com/hack-pad/hackpadfs"
	hackpados "github.com/hack-pad/hackpadfs/os"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"widgetboard/application/commands"
	"widgetboard/application/commands/bus"
	commandhandlers "widgetboard/application/commands/handlers"
	"widgetboard/application/ports"
	"widgetboard/application/queries"
	querybus "widgetboard/application/queries/bus"
	queryhandlers "widgetboard/application/queries/handlers"
	"widgetboard/application/services"
	domainconfig "widgetboard/domain/config"
	"widgetboard/domain/core/widgets"
	"widgetboard/domain/reconcile"
	"widgetboard/infrastructure/config"
	"widgetboard/infrastructure/gateway"
	"widgetboard/infrastructure/persistence/snapshot"
	"widgetboard/pkg/observability"
	"widgetboard/pkg/ratelimit"
)

// ClientID is the persisted pseudo-anonymous identity this process acts
// as when talking to the backend.
type ClientID string

// entityViewTTLSeconds bounds how long a fetched entity view may be
// served from cache before the backend is asked again.
const entityViewTTLSeconds = 5

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	DomainConfig  *domainconfig.DomainConfig
	Logger        *zap.Logger
	Registry      *prometheus.Registry
	Metrics       *observability.Metrics
	Gateway       ports.EntityGateway
	SnapshotStore ports.SnapshotStore
	IdentityStore ports.IdentityStore
	ClientID      ClientID
	BoardService  *services.BoardService
	WidgetService *services.WidgetService
	EdgeService   *services.EdgeService
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Cache         *InMemoryCache
	RateLimiter   *ratelimit.TokenBucketLimiter
}

// ProvideLogger creates the process logger from configuration.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideDomainConfig builds the board domain configuration, applying
// the policy flags exposed through the environment.
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	dc := domainconfig.DefaultDomainConfig()
	dc.AllowReopenWithResponses = cfg.AllowReopenWithResponses
	return dc
}

// ProvideRegistry creates the Prometheus registry with the standard
// process collectors attached.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics registers the board metrics on the registry.
func ProvideMetrics(reg *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(reg)
}

// ProvideDataFS opens the data directory as a filesystem rooted at
// cfg.DataDir, creating it if needed. The snapshot and identity stores
// address their files relative to this root.
func ProvideDataFS(cfg *config.Config) (hackpadfs.FS, error) {
	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := stdos.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	osFS := hackpados.NewFS()
	fsPath, err := osFS.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("map data dir: %w", err)
	}
	return osFS.Sub(fsPath)
}

// ProvideSnapshotStore creates the board snapshot store.
func ProvideSnapshotStore(fsys hackpadfs.FS, cfg *config.Config, logger *zap.Logger) ports.SnapshotStore {
	return snapshot.NewStore(fsys, cfg.SnapshotFilename, logger)
}

// ProvideIdentityStore creates the client identity store.
func ProvideIdentityStore(fsys hackpadfs.FS, cfg *config.Config) ports.IdentityStore {
	return snapshot.NewIdentityStore(fsys, cfg.IdentityFilename)
}

// ProvideClientID resolves the persisted client identity, generating one
// on first run.
func ProvideClientID(ctx context.Context, ids ports.IdentityStore) (ClientID, error) {
	id, err := ids.Identity(ctx)
	if err != nil {
		return "", err
	}
	return ClientID(id), nil
}

// ProvideEntityGateway creates the backend gateway client.
func ProvideEntityGateway(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (ports.EntityGateway, error) {
	return gateway.NewClient(cfg, metrics, logger)
}

// ProvideEngine creates the reconciliation engine.
func ProvideEngine(dc *domainconfig.DomainConfig) *reconcile.Engine {
	return reconcile.NewEngine(dc)
}

// ProvideMachine creates the widget view-state machine.
func ProvideMachine(dc *domainconfig.DomainConfig) *widgets.Machine {
	return widgets.NewMachine(dc)
}

// ProvideBoardService creates the board service.
func ProvideBoardService(
	engine *reconcile.Engine,
	entityGateway ports.EntityGateway,
	store ports.SnapshotStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.BoardService {
	return services.NewBoardService(engine, entityGateway, store, metrics, logger)
}

// ProvideWidgetService creates the widget service.
func ProvideWidgetService(
	boards *services.BoardService,
	entityGateway ports.EntityGateway,
	machine *widgets.Machine,
	dc *domainconfig.DomainConfig,
	clientID ClientID,
	logger *zap.Logger,
) *services.WidgetService {
	return services.NewWidgetService(boards, entityGateway, machine, dc, string(clientID), logger)
}

// ProvideEdgeService creates the edge maintenance service.
func ProvideEdgeService(boards *services.BoardService, logger *zap.Logger) *services.EdgeService {
	return services.NewEdgeService(boards, logger)
}

// ProvideRateLimiter creates the per-client token bucket limiter for the
// local API.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.TokenBucketLimiter {
	return ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval)
}

// ProvideCache creates the query cache.
func ProvideCache() *InMemoryCache {
	return NewInMemoryCache()
}

// ProvideCommandBus creates a command bus with all handlers registered
// behind the logging pipeline.
func ProvideCommandBus(
	boards *services.BoardService,
	widgetsSvc *services.WidgetService,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(bus.LoggingMiddleware(logger))

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.MoveNodeCommand{}, commandhandlers.NewMoveNodeHandler(boards)},
		{commands.ResizeNodeCommand{}, commandhandlers.NewResizeNodeHandler(boards)},
		{commands.SetViewportCommand{}, commandhandlers.NewSetViewportHandler(boards)},
		{commands.ConnectNodesCommand{}, commandhandlers.NewConnectNodesHandler(boards)},
		{commands.DisconnectNodesCommand{}, commandhandlers.NewDisconnectNodesHandler(boards)},
		{commands.SyncBoardCommand{}, commandhandlers.NewSyncBoardHandler(boards)},
		{commands.UpdateDraftCommand{}, commandhandlers.NewUpdateDraftHandler(boards)},
		{commands.ChangeWidgetModeCommand{}, commandhandlers.NewChangeWidgetModeHandler(widgetsSvc)},
		{commands.DeleteEntityCommand{}, commandhandlers.NewDeleteEntityHandler(widgetsSvc)},
	}

	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, pipeline.Execute(r.handler)); err != nil {
			return nil, err
		}
	}

	return commandBus, nil
}

// ProvideQueryBus creates a query bus with all handlers registered. The
// entity query is wrapped with a short-lived cache because each render
// of a display widget otherwise triggers a backend fetch.
func ProvideQueryBus(
	boards *services.BoardService,
	entityGateway ports.EntityGateway,
	clientID ClientID,
	cache *InMemoryCache,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	logging := querybus.LoggingMiddleware(logger)

	boardHandler := queryhandlers.NewGetBoardHandler(boards)
	if err := queryBus.Register(queries.GetBoardQuery{}, logging(boardHandler)); err != nil {
		return nil, err
	}

	caching := querybus.NewCachingMiddleware(cache, entityViewTTLSeconds)
	entityHandler := queryhandlers.NewGetEntityHandler(boards, entityGateway, string(clientID))
	if err := queryBus.Register(queries.GetEntityQuery{}, logging(caching.Wrap(entityHandler))); err != nil {
		return nil, err
	}

	return queryBus, nil
}
