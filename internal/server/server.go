package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/config"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/server/handler"
	"github.com/palemoky/spelling-bee/internal/server/httpapi"
	"github.com/palemoky/spelling-bee/internal/words"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 来源由 OriginChecker 在升级前检查
	CheckOrigin: func(*http.Request) bool { return true },
	// 消息都很小，压缩没有收益
	EnableCompression: false,
}

// Deps are the services the server is built from. The caller owns them and
// closes them after Run returns. Mirror may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *room.Registry
	Relay    relay.Relay
	Bank     *words.Bank
	Mirror   httpapi.RoomLister
}

// Server WebSocket 与 HTTP 服务器
type Server struct {
	config   *config.Config
	log      *zap.Logger
	registry *room.Registry
	relay    relay.Relay
	api      *httpapi.API
	handler  *handler.Handler

	clients    map[string]*Client
	clientsMu  sync.RWMutex
	sendBuffer int

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Registry == nil || deps.Relay == nil || deps.Bank == nil {
		return nil, errors.New("server: config, registry, relay and bank are required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	s := &Server{
		config:     cfg,
		log:        log,
		registry:   deps.Registry,
		relay:      deps.Relay,
		clients:    make(map[string]*Client),
		sendBuffer: cfg.Relay.SendBuffer,
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Server.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	if s.sendBuffer < 1 {
		s.sendBuffer = 1
	}

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server: s,
		Relay:  deps.Relay,
		Logger: log.Named("handler"),
	})
	s.api = httpapi.New(httpapi.Deps{
		Relay:     deps.Relay,
		Registry:  deps.Registry,
		Bank:      deps.Bank,
		Mirror:    deps.Mirror,
		PublicURL: cfg.Server.PublicURL,
		Logger:    log.Named("http"),
	})

	log.Info("security settings",
		zap.Int("conn_per_second", cfg.Security.RateLimit.MaxPerSecond),
		zap.Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Strings("allowed_origins", cfg.Server.AllowedOrigins),
	)
	return s, nil
}

// Router 返回所有路由
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", httpapi.Healthz)
	r.With(s.limitByIP).Mount("/api", s.api.Routes())
	return r
}

// limitByIP applies the connection rate limiter to HTTP requests.
func (s *Server) limitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		if !s.rateLimiter.Allow(ip) {
			s.log.Warn("http rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats(ctx)

	errs := make(chan error, 1)
	go func() {
		s.log.Info("server listening",
			zap.String("ws", fmt.Sprintf("ws://%s/ws", addr)),
			zap.String("transport", s.config.Relay.Transport),
			zap.Int("cpus", runtime.NumCPU()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.GracefulShutdown(srv, s.config.Server.ShutdownTimeoutDuration())
}
