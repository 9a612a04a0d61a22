package ops

import (
	"context"
	"net/http"

	"github.com/momenta-tech/go-backend/internal/cfg"
)

// Server — служебный HTTP-сервер с пробами живости и готовности.
// Публичного API у ядра нет, наружу торчат только /healthz и /readyz.
type Server struct {
	httpServer *http.Server
}

func NewServer(handler http.Handler, cfg *cfg.OpsConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
