/**
 * @description
 * HTTP router setup for the narration service using go-chi/chi.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers narration routes.
func NewRouter(h *Handler, keys *KeySource, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Narration service is healthy"))
	})

	r.Route("/internal/render", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/timeline", h.handleRenderTimeline)
		r.Post("/dispute", h.handleRenderDispute)
		r.Post("/fees", h.handleRenderFees)
	})

	r.Group(func(r chi.Router) {
		r.Use(MerchantAuthMiddleware(keys))
		r.Get("/payments/{chargeID}/timeline", h.handleGetTimeline)
		r.Get("/payments/{chargeID}/fees", h.handleGetFees)
		r.Get("/payments/{chargeID}/details", h.handleGetDetails)
		r.Get("/disputes/{disputeID}/narrative", h.handleGetDisputeNarrative)
	})

	return r
}
