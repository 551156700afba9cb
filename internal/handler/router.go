// Package handler exposes the HTTP surface of the tracker: auth,
// transactions, loans, loan contacts, dashboard and operational
// endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router dispatches to.
type Services struct {
	Auth         *service.AuthService
	Transactions *service.TransactionService
	Loans        *service.LoanService
	Contacts     *service.ContactService
	Dashboard    *service.DashboardService
	Advisor      *service.AdvisorService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestCounter(metrics))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Transactions, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Post("/auth/signup", signupHandler(svcs.Auth, logger))
		r.Post("/auth/login", loginHandler(svcs.Auth, logger))
		r.Post("/auth/validate", validateTokenHandler(svcs.Auth, logger))

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
			r.Post("/transactions", addTransactionHandler(svcs.Transactions, logger))
			r.Put("/transactions/{transactionId}", updateTransactionHandler(svcs.Transactions, logger))
			r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Transactions, logger))

			// Legacy loans
			r.Get("/loans", listLoansHandler(svcs.Loans, logger))
			r.Post("/loans", addLoanHandler(svcs.Loans, logger))
			r.Put("/loans/{loanId}", updateLoanHandler(svcs.Loans, logger))
			r.Delete("/loans/{loanId}", deleteLoanHandler(svcs.Loans, logger))

			// Loan contacts + activity ledger
			r.Get("/loan-contacts", listContactsHandler(svcs.Contacts, logger))
			r.Post("/loan-contacts", createContactHandler(svcs.Contacts, logger))
			r.Get("/loan-contacts/{contactId}", getContactHandler(svcs.Contacts, logger))
			r.Put("/loan-contacts/{contactId}", updateContactHandler(svcs.Contacts, logger))
			r.Delete("/loan-contacts/{contactId}", deleteContactHandler(svcs.Contacts, logger))
			r.Get("/loan-contacts/{contactId}/activities", listActivitiesHandler(svcs.Contacts, logger))
			r.Post("/loan-contacts/{contactId}/activities", addActivityHandler(svcs.Contacts, logger))
			r.Delete("/loan-contacts/{contactId}/activities/{activityId}", deleteActivityHandler(svcs.Contacts, logger))

			// Dashboard + balance
			r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))
			r.Get("/dashboard/balance", balanceHandler(svcs.Transactions, logger))

			// Advisor
			r.Post("/ai/advice", adviceHandler(svcs.Advisor, logger))

			// Operational counters
			r.Get("/stats", statsHandler(metrics))
		})
	})

	return r
}

// requestCounter tallies finished requests by outcome for /api/stats.
func requestCounter(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= 500 {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
		})
	}
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(txSvc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "tracker-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if txSvc != nil {
			start := time.Now()
			_, err := txSvc.List(ctx, "health-check", domain.TransactionFilter{})
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func statsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
