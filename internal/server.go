package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/2beens/gymprogram/internal/auth"
	"github.com/2beens/gymprogram/internal/cache"
	"github.com/2beens/gymprogram/internal/config"
	"github.com/2beens/gymprogram/internal/db"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/gymstats/rtf"
	"github.com/2beens/gymprogram/internal/gymstats/sessions"
	"github.com/2beens/gymprogram/internal/gymstats/tm"
	"github.com/2beens/gymprogram/internal/middleware"
	"github.com/2beens/gymprogram/internal/telemetry/metrics"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
	"github.com/2beens/gymprogram/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	cacheProvider *cache.Provider
	services      *services
	resolver      auth.Resolver
	rateLimiter   middleware.RequestRateLimiter
	sweeper       *sessions.Sweeper
	rtfCollector  *metrics.RtfCollector

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type services struct {
	routines *routines.Service
	tm       *tm.Service
	rtf      *rtf.Service
	sessions *sessions.Service
}

type NewServerParams struct {
	Config      *config.Config
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     cfg.Secrets.PostgresPassword,
		MaxConns:       cfg.PostgresMaxConns,
		TracingEnabled: cfg.Secrets.HoneycombEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("gymprogram", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.Secrets.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(cfg.Secrets.HoneycombEnabled, "gymprogram-backend", rdb)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.ProviderParams{
		Driver:          cfg.CacheDriver,
		Layering:        cfg.CacheLayering,
		DefaultTTL:      cfg.CacheDefaultTTL(),
		L1TTL:           cfg.CacheL1TTL(),
		MemorySizeBytes: cfg.CacheMemorySizeBytes(),
		Namespace:       cfg.CacheKeyPrefix,
		ExternalStore:   rdb,
	})
	if err != nil {
		return nil, fmt.Errorf("new cache provider: %w", err)
	}

	strategy, err := tm.StepStrategyByName(cfg.AutoAdjustStrategy)
	if err != nil {
		return nil, err
	}

	routinesService := routines.NewService(routines.NewRepo(dbPool), cacheProvider)
	tmService := tm.NewService(tm.ServiceParams{
		Repo:       tm.NewRepo(dbPool),
		Routines:   routinesService,
		Cache:      cacheProvider,
		Metrics:    metricsManager,
		MaxDeltaKg: cfg.TMDeltaLimitKg(),
		Strategy:   strategy,
	})
	sessionsRepo := sessions.NewRepo(dbPool)

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		redisClient: rdb,
		versionInfo: params.VersionInfo,

		cacheProvider: cacheProvider,
		services: &services{
			routines: routinesService,
			tm:       tmService,
			rtf:      rtf.NewService(routinesService, cacheProvider, cfg.CacheDefaultTTL()),
			sessions: sessions.NewService(sessionsRepo, routinesService, tmService, metricsManager),
		},
		resolver:    auth.NewSessionResolver(auth.DefaultTTL, rdb),
		rateLimiter: redis_rate.NewLimiter(rdb),
		sweeper: sessions.NewSweeper(
			sessionsRepo,
			cfg.SessionAbortAfter(),
			cfg.SessionSweepInterval(),
			metricsManager,
		),
		rtfCollector: metrics.NewRtfCollector(cacheProvider, cfg.MetricsSnapshotInterval(), promRegistry),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymprogram-router"))

	r.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS").Name("health")

	routinesHandler := routines.NewHandler(s.services.routines)
	r.HandleFunc("/routines/{id}/program", routinesHandler.HandleEnableProgram).Methods("POST", "OPTIONS").Name("enable-program")
	r.HandleFunc("/routines/{id}", routinesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-routine")

	rtfHandler := rtf.NewHandler(s.services.rtf, s.config.ETagEnabled)
	r.HandleFunc("/routines/{id}/rtf-week-goals", rtfHandler.HandleWeekGoals).Methods("GET", "OPTIONS").Name("rtf-week-goals")
	r.HandleFunc("/routines/{id}/rtf-timeline", rtfHandler.HandleTimeline).Methods("GET", "OPTIONS").Name("rtf-timeline")
	r.HandleFunc("/routines/{id}/rtf-forecast", rtfHandler.HandleForecast).Methods("GET", "OPTIONS").Name("rtf-forecast")

	tmHandler := tm.NewHandler(s.services.tm)
	tmRateLimit := middleware.RateLimit(s.rateLimiter, "tm-events", s.config.TMEventsPerMin(), s.metricsManager)
	r.Handle("/routines/{id}/tm-events", tmRateLimit(http.HandlerFunc(tmHandler.HandleCreate))).Methods("POST", "OPTIONS").Name("new-tm-event")
	r.HandleFunc("/routines/{id}/tm-events/summary", tmHandler.HandleSummary).Methods("GET", "OPTIONS").Name("tm-events-summary")
	r.HandleFunc("/routines/{id}/tm-events", tmHandler.HandleList).Methods("GET", "OPTIONS").Name("list-tm-events")

	sessionsHandler := sessions.NewHandler(s.services.sessions)
	r.HandleFunc("/sessions/start", sessionsHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.HandleFunc("/sessions/active", sessionsHandler.HandleActive).Methods("GET", "OPTIONS").Name("active-session")
	r.HandleFunc("/sessions/{id}/finish", sessionsHandler.HandleFinish).Methods("POST", "OPTIONS").Name("finish-session")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.resolver)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(middleware.DefaultMaxBodyBytes))

	return r
}

type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version,omitempty"`
	Cache   cache.ProviderStats `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, HealthResponse{
		Status:  "ok",
		Version: s.versionInfo,
		Cache:   s.cacheProvider.Stats(),
	}, http.StatusOK)
}

// Serve starts the HTTP servers and the background workers. It does not
// block, workers stop when ctx is done.
func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: otelhttp.NewHandler(metricsRouter, "metrics"),
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	go s.sweeper.Run(ctx)
	go s.rtfCollector.Run(ctx)

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var shutdownErr error

	// stop taking requests first, both servers in parallel
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.httpServer == nil {
			return nil
		}
		if err := s.httpServer.Shutdown(gCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Warnln("server shut down")
		return nil
	})
	g.Go(func() error {
		if s.metricsHttpServer == nil {
			return nil
		}
		if err := s.metricsHttpServer.Shutdown(gCtx); err != nil {
			return fmt.Errorf("shutdown metrics http server: %w", err)
		}
		log.Warnln("metrics server shut down")
		return nil
	})
	shutdownErr = multierr.Append(shutdownErr, g.Wait())

	if err := s.cacheProvider.Close(ctx); err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("close cache provider: %w", err))
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return shutdownErr
}
