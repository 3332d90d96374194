package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ridopark/ta-signal-bot/internal/config"
	"github.com/ridopark/ta-signal-bot/internal/configmanager"
	"github.com/ridopark/ta-signal-bot/internal/engine"
	"github.com/ridopark/ta-signal-bot/internal/historyloader"
	"github.com/ridopark/ta-signal-bot/internal/indicators"
	"github.com/ridopark/ta-signal-bot/internal/listener"
	"github.com/ridopark/ta-signal-bot/internal/logger"
	"github.com/ridopark/ta-signal-bot/internal/publisher"
	"github.com/ridopark/ta-signal-bot/internal/store"
	"github.com/ridopark/ta-signal-bot/internal/strategy"
	"github.com/ridopark/ta-signal-bot/pkg/api/handlers"
)

// Server wires every component (C1-C7) into one running process and owns
// their shared lifecycle: start in dependency order, shut down in reverse.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger

	db         *store.DB
	mongoConn  *mongo.Client
	natsConn   *nats.Conn
	configMgr  *configmanager.Manager
	loader     *historyloader.Loader
	calculator *indicators.Calculator
	registry   *strategy.Registry
	pub        *publisher.Publisher
	eng        *engine.Engine
	lis        *listener.Listener
	cron       *cron.Cron
	httpServer *http.Server
}

func main() {
	srv, err := initializeServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize signal engine server: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		srv.logger.Fatal().Err(err).Msg("failed to start signal engine server")
	}

	srv.WaitForShutdown()
}

func initializeServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)
	appLogger.Info().Str("environment", cfg.Environment).Msg("initializing ta-signal-bot")

	db, err := store.NewConnection(store.DSNConfig{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, Name: cfg.Database.Name, SSLMode: cfg.Database.SSLMode,
		MaxConnections: cfg.Database.MaxConnections, MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relational store: %w", err)
	}

	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		return nil, fmt.Errorf("document store health check failed: %w", err)
	}

	registry := strategy.NewRegistry()

	envTier := configmanager.NewEnvDefaultsTier()
	envTier.EnableAllKnownStrategies(registry.IDs())

	tiers := []configmanager.Tier{
		configmanager.NewDataManagerTier(cfg.DataManager.BaseURL, time.Duration(cfg.DataManager.APITimeoutSecs)*time.Second),
		configmanager.NewMongoTier(mongoClient.Database(cfg.Mongo.Database)),
		configmanager.NewPostgresTier(db),
		envTier,
	}
	cacheTTL := time.Duration(cfg.Signal.ConfigCacheTTLSeconds) * time.Second
	configMgr := configmanager.New(tiers, registry, cacheTTL, appLogger)

	candleStore, err := historyloader.NewPostgresCandleStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare candle store: %w", err)
	}
	loader := historyloader.New(candleStore, appLogger, historyloader.WithCache(30*time.Second))

	calculator := indicators.NewCalculator()

	natsConn, err := listener.Connect(cfg.NATS.URL, time.Duration(cfg.NATS.ReconnectWaitSeconds)*time.Second, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message bus: %w", err)
	}

	signalStore, err := publisher.NewPostgresSignalStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare signal store: %w", err)
	}
	httpPoster := publisher.NewHTTPSignalPoster(&http.Client{Timeout: 5 * time.Second}, cfg.Signal.PublisherEndpoint)
	pub := publisher.New(publisher.Config{BusSubject: "signals", QueueDepth: publisher.DefaultQueueDepth}, natsConn, httpPoster, signalStore, appLogger)

	engCfg := engine.DefaultConfig()
	engCfg.Risk = engine.RiskDefaults{
		ATRStopLossMultiplier:   cfg.Signal.ATRStopLossMultiplier,
		ATRTakeProfitMultiplier: cfg.Signal.ATRTakeProfitMultiplier,
		DefaultStopLossPct:      cfg.Signal.DefaultStopLossPct,
		DefaultTakeProfitPct:    cfg.Signal.DefaultTakeProfitPct,
	}
	eng := engine.New(engCfg, configMgr, loader, calculator, registry, pub, appLogger)

	lis := listener.New(natsConn, cfg.NATS.Subject, cfg.NATS.QueueGroup, eng, appLogger)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware(appLogger))
	router.HandleFunc("/health", healthHandler(db, appLogger)).Methods("GET")
	handlers.RegisterRoutes(router, handlers.NewConfigHandler(configMgr), handlers.NewStrategyHandler(configMgr, registry))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &Server{
		cfg: cfg, logger: appLogger,
		db: db, mongoConn: mongoClient, natsConn: natsConn,
		configMgr: configMgr, loader: loader, calculator: calculator, registry: registry,
		pub: pub, eng: eng, lis: lis,
		cron:       cron.New(),
		httpServer: httpServer,
	}, nil
}

func (s *Server) Start() error {
	if err := s.lis.Start(); err != nil {
		return fmt.Errorf("failed to start message listener: %w", err)
	}

	s.cron.AddFunc("@every 1m", s.logHousekeepingMetrics)
	s.cron.Start()

	go func() {
		s.logger.Info().Str("address", s.httpServer.Addr).Msg("admin http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("admin http server failed")
		}
	}()

	s.logger.Info().Msg("ta-signal-bot started")
	return nil
}

func (s *Server) logHousekeepingMetrics() {
	s.logger.Info().
		Interface("listener", s.lis.Metrics()).
		Interface("engine", s.eng.Metrics()).
		Interface("publisher", s.pub.Metrics()).
		Msg("housekeeping metrics snapshot")
}

func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.lis.Stop(); err != nil {
		s.logger.Error().Err(err).Msg("message listener stop error")
	}

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	s.eng.Shutdown(10 * time.Second)
	s.pub.Shutdown(10 * time.Second)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("admin http server shutdown error")
	}

	if err := s.natsConn.Drain(); err != nil {
		s.logger.Error().Err(err).Msg("message bus drain error")
	}

	if err := s.mongoConn.Disconnect(ctx); err != nil {
		s.logger.Error().Err(err).Msg("document store disconnect error")
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error().Err(err).Msg("relational store close error")
	}

	s.logger.Info().Msg("ta-signal-bot shutdown complete")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info().Str("method", r.Method).Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).Msg("admin http request")
		})
	}
}

func healthHandler(db *store.DB, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("health check: relational store unreachable")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprintf(w, `{"status":%q}`, status)
	}
}
