package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// maxBodyBytes bounds a form submission; a client record is well under 4 KiB.
const maxBodyBytes = 64 << 10

// NewRouter creates the HTTP router with all routes and middleware.
// Routes serve the GO-Entulho client form and client list screens.
func NewRouter(store *service.ClientStore, query *service.QueryService, lc *service.Lifecycle, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.RequestSize(maxBodyBytes))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Lista de clientes
		// GET    /v1/clients?sort=name|date|total&order=asc|desc
		// POST   /v1/clients
		// GET    /v1/clients/{nif}
		// DELETE /v1/clients/{nif}?confirm=true
		// =============================================
		r.Get("/clients", listClientsHandler(store, query, lc, logger))
		r.Post("/clients", submitClientHandler(lc, logger))
		r.Get("/clients/{nif}", getClientHandler(store, logger))
		r.Delete("/clients/{nif}", deleteClientHandler(lc, logger))

		// =============================================
		// 2. Estado do serviço
		// POST /v1/clients/{nif}/trabalho
		// POST /v1/clients/{nif}/pagamento
		// PUT  /v1/clients/{nif}/flags/{flag}
		// =============================================
		r.Post("/clients/{nif}/trabalho", toggleHandler(lc.ToggleTrabalho, "trabalho", logger))
		r.Post("/clients/{nif}/pagamento", toggleHandler(lc.TogglePagamento, "pagamento", logger))
		r.Put("/clients/{nif}/flags/{flag}", setFlagHandler(lc, logger))

		// =============================================
		// 3. Pesquisa por número
		// GET /v1/search?numero=
		// =============================================
		r.Get("/search", searchHandler(query, logger))

		// =============================================
		// 4. Edição
		// GET    /v1/edit
		// POST   /v1/edit/{nif}
		// DELETE /v1/edit
		// =============================================
		r.Get("/edit", getEditHandler(lc))
		r.Post("/edit/{nif}", beginEditHandler(lc, logger))
		r.Delete("/edit", cancelEditHandler(lc))

		// =============================================
		// 5. Formulário
		// POST /v1/form/field
		// POST /v1/form/check
		// =============================================
		r.Post("/form/field", formFieldHandler(logger))
		r.Post("/form/check", formCheckHandler())

		// =============================================
		// 6. Resumo
		// GET /v1/stats
		// =============================================
		r.Get("/stats", statsHandler(query))
	})

	return r
}

func healthzHandler(store *service.ClientStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "goentulho-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			slot := domain.ServiceHealth{Name: "slot-store", Status: "healthy", LastChecked: now}
			if warning := store.LoadWarning(); warning != "" {
				slot.Status = "degraded"
				slot.Detail = warning
			}
			services = append(services, slot)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
