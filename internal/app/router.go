package app

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutri/internal/food"
	httpmetrics "nutri/internal/platform/metrics"
	"nutri/internal/platform/middleware"
	"nutri/pkg/platform/httputil"
	"nutri/pkg/platform/middleware/requesttime"
)

const (
	serviceName    = "Bot Nutri API"
	serviceVersion = "1.0.0"
	healthTimeout  = 2 * time.Second
)

type rootResponse struct {
	Message string   `json:"message"`
	Version string   `json:"version"`
	Routes  []string `json:"routes"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (a *App) router(foods *food.Handler, m *httpmetrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(a.logger, m))
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)

	r.Get("/", a.handleRoot(r))
	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	foods.Register(r)

	return r
}

func (a *App) handleRoot(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []string
		_ = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			list = append(list, method+" "+route)
			return nil
		})
		sort.Strings(list)
		httputil.WriteJSON(w, http.StatusOK, rootResponse{
			Message: serviceName,
			Version: serviceVersion,
			Routes:  list,
		})
	}
}

// handleHealth reports 200 when every dependency answers and 503 otherwise.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	status := http.StatusOK
	if len(a.checks) > 0 {
		resp.Checks = make(map[string]string, len(a.checks))
	}
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			a.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
