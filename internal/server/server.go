package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supportdesk/internal/config"
	"supportdesk/internal/metrics"
	"supportdesk/internal/services"
)

// Deps bundles everything the HTTP surface needs. All logic lives in the
// services; handlers only decode, dispatch, and encode.
type Deps struct {
	Config   *config.Config
	Support  *services.SupportService
	Contacts *services.ContactBookService
	Auth     *services.AuthService
	DBHealth func() error
}

// NewRouter wires the HTTP surface: public submission endpoints per tier,
// staff-only administrative browsing, the address book, auth, health, and
// Prometheus metrics.
func NewRouter(d Deps) http.Handler {
	h := &handler{deps: d}

	r := chi.NewRouter()
	r.Use(SecurityHeaders(d.Config))
	r.Use(CORS(d.Config))
	r.Use(RequestLogging)
	r.Use(metrics.PrometheusMiddleware)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Route("/support", func(r chi.Router) {
			// Submissions are public; a valid token only enriches the
			// full tier with the submitter's identity.
			r.Group(func(r chi.Router) {
				r.Use(OptionalAuth(d.Auth))
				r.Post("/basic", h.submitBasic)
				r.Post("/phone", h.submitPhone)
				r.Post("/location", h.submitLocation)
				r.Post("/full", h.submitFull)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireStaff(d.Auth))
				r.Get("/", h.listSupport)
				r.Get("/{id}", h.getSupport)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Use(RequireStaff(d.Auth))
			r.Get("/", h.listContacts)
			r.Post("/", h.createContact)
			r.Get("/{id}", h.getContact)
			r.Put("/{id}", h.updateContact)
			r.Delete("/{id}", h.deleteContact)
			r.Get("/labels", h.listLabels)
			r.Post("/labels", h.createLabel)
			r.Post("/{id}/labels/{labelID}", h.assignLabel)
			r.Get("/labels/{labelID}/contacts", h.contactsByLabel)
			r.Post("/{id}/fields", h.addCustomField)
		})
	})

	return r
}
