package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
)

// monitorStats 定期记录服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		s.log.Info("stats",
			zap.Int("online", s.GetOnlineCount()),
			zap.Int("rooms", len(s.registry.Codes())),
			zap.Int("goroutines", runtime.NumGoroutine()),
			zap.Int("active_conns", len(s.semaphore)),
			zap.Int("max_conns", s.maxConnections),
			zap.Float64("alloc_mb", float64(m.Alloc)/1024/1024),
		)
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和加入房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.broadcast(codec.NewErrorMessage(protocol.ErrCodeMaintenance))
	s.log.Info("entered maintenance mode")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown stops accepting requests, waits up to timeout for HTTP
// handlers, then closes every websocket.
func (s *Server) GracefulShutdown(srv *http.Server, timeout time.Duration) error {
	s.EnterMaintenanceMode()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		s.log.Warn("http shutdown timed out", zap.Duration("timeout", timeout), zap.Error(err))
	}

	s.Shutdown()
	return err
}

// Shutdown closes all client connections and background workers.
func (s *Server) Shutdown() {
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
	s.rateLimiter.Close()

	s.log.Info("server stopped", zap.Int("closed_clients", len(clients)))
}
