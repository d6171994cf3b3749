package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"routegeo/internal/cache"
	"routegeo/internal/config"
	"routegeo/internal/dispatch"
	"routegeo/internal/metrics"
	"routegeo/internal/store"
)

type pinger interface{ Ping(ctx context.Context) error }

type Server struct {
	Config     config.Config
	Routes     store.RouteStore
	Cache      cache.Cache
	Dispatcher *dispatch.Dispatcher
	Logger     *zap.Logger

	limiter *rate.Limiter
	closers []func() error
}

// NewServer wires the backends named by cfg. Without DATABASE_URL routes are
// kept in memory; without REDIS_URL decoded routes are cached in memory.
// The process-wide dispatcher is reconfigured from cfg.Decode.
func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{Config: cfg, Logger: logger}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s.Routes = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.MigrateDir("db/migrations"); err != nil {
			logger.Warn("migrations not applied", zap.Error(err))
		}
		s.Routes = pg
		s.closers = append(s.closers, pg.Close)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("redis cache unavailable, using memory", zap.Error(err))
			s.Cache = cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
		} else {
			s.Cache = rc
			s.closers = append(s.closers, rc.Close)
		}
	} else {
		s.Cache = cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
	}

	if cfg.RateRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)
	}

	s.Dispatcher = dispatch.Configure(dispatch.Options{
		Timeout:          cfg.Decode.Timeout,
		Threshold:        cfg.Decode.Threshold,
		DefaultTolerance: cfg.Decode.Tolerance,
		NewWorker:        dispatch.NewWorkerFactory(cfg.Decode.Threshold, cfg.Decode.Tolerance, cfg.Decode.WorkerEnabled),
		Logger:           logger,
	})
	return s, nil
}

// Handler returns the routed, instrumented HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/polyline/decode", s.DecodeHandler)
	mux.HandleFunc("/v1/polyline/ws", s.DecodeWSHandler)
	mux.HandleFunc("/v1/routes/deviation", s.DeviationHandler)
	mux.HandleFunc("/v1/routes/", s.RouteGeometryHandler) // /v1/routes/{routeId}/geometry

	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/debug/info", s.DebugJSON)
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s.logMiddleware(s.metricsMiddleware(s.rateLimit(mux)))
}

// Close releases backend connections. The dispatcher is left to
// dispatch.Cleanup.
func (s *Server) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
	tenant := r.Header.Get("X-Tenant-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
	return ctx, tenant
}

type ctxKeyTenant struct{}
