package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/middleware"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the deployment details the router needs.
type RouterConfig struct {
	Env         string
	Version     string
	CORSOrigins []string
	LogLevel    slog.Level
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, leaveHandler LeaveHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-ledger"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(middleware.Locale)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with a short-lived query token
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Route("/leave", func(r chi.Router) {
				r.Get("/types", leaveHandler.ListTypes)

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", leaveHandler.Submit)
					r.Post("/late", leaveHandler.SubmitLate)
					r.Get("/my", leaveHandler.GetMyRequests)
					r.Get("/{id}", leaveHandler.GetRequest)
					r.Post("/{id}/cancel", leaveHandler.Cancel)
					r.Post("/{id}/decisions", leaveHandler.Decide)
				})

				r.Route("/negotiations", func(r chi.Router) {
					r.Post("/accept", leaveHandler.AcceptUnpaid)
					r.Post("/decline", leaveHandler.DeclineNegotiation)
				})

				r.Get("/approvals/{stage}", leaveHandler.ListAwaiting)

				r.Route("/credits", func(r chi.Router) {
					r.Get("/my", leaveHandler.GetMyCredits)
					r.Get("/{employeeID}/history", leaveHandler.GetCreditHistory)

					// HR only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireCreditAdmin)
						r.Post("/adjust", leaveHandler.AdjustCredits)
					})
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCreditAdmin)
					r.Post("/accruals/run", leaveHandler.RunAccrual)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Get("/preferences", notificationHandler.GetPreferences)
				r.Put("/preferences", notificationHandler.UpdatePreference)
				r.Get("/sse-token", notificationHandler.GetSSEToken)
			})
		})
	})
	return r
}
