package ops

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/momenta-tech/go-backend/pkg/logger"
)

// Check — именованная проба готовности одной зависимости.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует пробы живости и готовности.
// /healthz отвечает всегда, /readyz — только когда все зависимости доступны.
func (r *Router) Init(checks []Check) {
	r.router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.router.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				r.logger.Warnf("readiness probe %s failed: %v", check.Name, err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, "%s: unavailable", check.Name)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}
