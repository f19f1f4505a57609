package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Handler отвечает 200 OK на любой запрос.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// Server — liveness endpoint, независимый от выполнения задач.
//
// Window > 0 включает режим с ограниченным временем жизни: сервер
// останавливается сам через Window после старта.
type Server struct {
	addr   string
	window time.Duration
	logger *slog.Logger

	srv  *http.Server
	ln   net.Listener
	done chan struct{}
	once sync.Once
}

// New создаёт сервер на addr.
func New(addr string, window time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   addr,
		window: window,
		logger: logger.With("component", "health"),
		srv: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		done: make(chan struct{}),
	}
}

// Start занимает порт и обслуживает запросы в фоне.
// Ошибка возвращается только если порт занять не удалось.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("health server started", "addr", ln.Addr().String(), "window", s.window)

	go func() {
		defer s.finish()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		var expire <-chan time.Time
		if s.window > 0 {
			t := time.NewTimer(s.window)
			defer t.Stop()
			expire = t.C
		}
		select {
		case <-ctx.Done():
		case <-expire:
			s.logger.Info("health window elapsed")
		case <-s.done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	return nil
}

// Addr возвращает фактический адрес после Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Done закрывается, когда сервер остановлен.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Shutdown останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.finish()
	return err
}

func (s *Server) finish() {
	s.once.Do(func() {
		close(s.done)
		s.logger.Info("health server stopped")
	})
}
