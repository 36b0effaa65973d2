package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"
	"interviewsignal/internal/core/services"
	httphandlers "interviewsignal/internal/handlers/http"
	"interviewsignal/internal/infrastructure/collaborators"
	"interviewsignal/internal/infrastructure/distributed"
	"interviewsignal/internal/infrastructure/middleware"
	"interviewsignal/internal/infrastructure/monitoring"
	"interviewsignal/internal/infrastructure/reliability"
	signalinfra "interviewsignal/internal/infrastructure/signal"
	"interviewsignal/pkg/circuitbreaker"
	"interviewsignal/pkg/config"
	"interviewsignal/pkg/logger"
	"interviewsignal/pkg/retry"
	"interviewsignal/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("INTERVIEWSIGNAL_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to load configuration", "path", configPath, "error", err)
	}

	zapLogger := logger.New(cfg.Logging.Level)
	if cfg.Logging.Format == "console" {
		zapLogger = logger.NewDevelopment(cfg.Logging.Level)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	instanceID := uuid.NewString()
	log.Infow("starting interviewsignal", "instance_id", instanceID, "config", configPath)

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "interviewsignal",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	var metrics ports.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Enabled = cfg.Reliability.RetryEnabled
	retryCfg.MaxAttempts = cfg.Reliability.RetryMaxAttempts
	retryCfg.InitialDelay = cfg.Reliability.RetryInitialDelay
	retryCfg.MaxDelay = cfg.Reliability.RetryMaxDelay

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.FailureThreshold = cfg.Reliability.BreakerFailureThreshold
	breakerCfg.Timeout = cfg.Reliability.BreakerTimeout

	clientCfg := func(baseURL string) collaborators.Config {
		return collaborators.Config{
			BaseURL:    baseURL,
			ServiceKey: cfg.Services.ServiceKey,
			Timeout:    cfg.Services.Timeout,
		}
	}
	accessClient := collaborators.NewAccessClient(clientCfg(cfg.Services.AccessBaseURL), metrics, log)
	chatClient := collaborators.NewChatClient(clientCfg(cfg.Services.ChatBaseURL), metrics, log)

	var accounts ports.AccountDirectory
	if cfg.Services.AccountsBaseURL != "" {
		accountClient := collaborators.NewAccountClient(clientCfg(cfg.Services.AccountsBaseURL), metrics, log)
		accounts = reliability.NewAccountWrapper(accountClient, retryCfg, breakerCfg, log)
	}

	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddPingCheck("access", accessClient, 2*time.Second)
	healthChecker.AddPingCheck("chat", chatClient, 2*time.Second)

	var (
		redisClient *redis.Client
		store       ports.PresenceStore
		bus         *distributed.PresenceBus
	)
	if cfg.Redis.Enabled {
		redisClient, err = distributed.NewRedisClient(context.Background(), distributed.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, log)
		if err != nil {
			log.Warnw("redis unavailable, running without presence mirror", "error", err)
		} else {
			store = distributed.NewRedisPresenceStore(redisClient, cfg.Redis.PresenceTTL)
			bus = distributed.NewPresenceBus(redisClient, instanceID, log)
			healthChecker.AddRedisCheck(redisClient, 2*time.Second)
		}
	}

	hub := signalinfra.NewHub(log)

	deps := services.CoordinatorDeps{
		Verifier:  services.NewIdentityVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, accounts),
		Access:    reliability.NewAccessWrapper(accessClient, retryCfg, breakerCfg, log),
		Chat:      reliability.NewChatWrapper(chatClient, breakerCfg, log),
		Transport: hub,
		Store:     store,
		Metrics:   metrics,
	}
	if bus != nil {
		deps.Publisher = bus
	}
	coordinator := services.NewCoordinator(deps, services.CoordinatorConfig{
		ICEServers:           iceServers(cfg),
		DisconnectSuperseded: cfg.Signal.DisconnectSuperseded,
	}, log)

	wsServer := signalinfra.NewWebSocketServer(hub, coordinator, signalinfra.ServerConfig{
		PingInterval:      cfg.Signal.PingInterval,
		PongTimeout:       cfg.Signal.PongTimeout,
		WriteTimeout:      cfg.Signal.WriteTimeout,
		SendBufferSize:    cfg.Signal.SendBufferSize,
		MaxMessageSize:    cfg.Signal.MaxMessageSizeBytes,
		AllowedOrigins:    cfg.Signal.AllowedOrigins,
		MessagesPerSecond: wsMessageRate(cfg),
		MessageBurst:      cfg.RateLimiting.WebSocket.Burst,
	}, log)

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	if bus != nil {
		go func() {
			err := bus.Subscribe(busCtx, func(update domain.PresenceUpdate) {
				hub.Broadcast(domain.EventPresence, update)
			})
			if err != nil && busCtx.Err() == nil {
				log.Errorw("presence subscription ended", "error", err)
			}
		}()
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.TracingMiddleware(),
		middleware.ErrorHandlerMiddleware(log),
	)

	router.GET("/ws", middleware.NewWebSocketRateLimitMiddleware(cfg), gin.WrapF(wsServer.HandleWebSocket))
	router.GET("/health", gin.WrapF(wsServer.HealthCheck))
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := healthChecker.CheckAll(ctx)
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	api := router.Group("", middleware.NewHTTPRateLimitMiddleware(cfg))
	httphandlers.NewPresenceHandler(coordinator, coordinator).SetupRoutes(api,
		middleware.AuthMiddleware(deps.Verifier),
		middleware.ServiceKeyMiddleware(cfg.Services.ServiceKey),
	)

	srv := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("websocket connections did not drain", "error", err)
	}

	stopBus()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("error closing redis", "error", err)
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer", "error", err)
	}

	log.Info("interviewsignal stopped")
}

func iceServers(cfg *config.Config) []webrtc.ICEServer {
	if len(cfg.WebRTC.ICEServers) == 0 {
		return []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		}
	}
	servers := make([]webrtc.ICEServer, 0, len(cfg.WebRTC.ICEServers))
	for _, s := range cfg.WebRTC.ICEServers {
		servers = append(servers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return servers
}

func wsMessageRate(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}
