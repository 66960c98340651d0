/*
server.go - HTTP router setup

PURPOSE:
  Wires the chi router: middleware, CORS, and the route table mapping
  endpoints to handlers.

SEE ALSO:
  - handlers.go: The handlers mounted here
  - cmd/server/main.go: Binds the router to a listener
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP route table around the given handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.CreateClient)
			r.Get("/", h.ListClients)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Delete("/", h.DeleteClient)
				r.Get("/schedule", h.GetSchedule)
				r.Get("/delinquency", h.GetDelinquency)
				r.Post("/payments", h.CreatePayment)
				r.Get("/payments", h.ListPayments)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Put("/{id}", h.UpdatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Get("/delinquency", h.ListDelinquency)
	})

	return r
}
