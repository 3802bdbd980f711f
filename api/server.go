/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/consultants/*         Consultant management, summaries, day views
  /api/projects/*            Project management
  /api/project-assignments   Consultant-to-project links
  /api/absence-requests/*    Absence lifecycle and HR review
  /api/timesheets/*          Monthly timesheets
  /api/enums                 Enum listing for clients

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Consultant routes
		r.Route("/consultants", func(r chi.Router) {
			r.Get("/", h.ListConsultants)
			r.Post("/", h.CreateConsultant)
			r.Get("/{id}", h.GetConsultant)
			r.Get("/{id}/projects", h.ListConsultantProjects)
			r.Get("/{id}/timesheets", h.ListConsultantTimesheets)
			r.Get("/{id}/timesheet/{year}/{month}", h.GetConsultantTimesheet)
			r.Get("/{id}/absence-requests/{year}", h.ListConsultantAbsenceRequests)
			r.Get("/{id}/absence-summary/{year}", h.GetAbsenceSummary)
			r.Get("/{id}/absences/{year}/{month}", h.GetMonthAbsences)
			r.Get("/{id}/daily-validation/{date}", h.GetDailyValidation)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
		})
		r.Post("/project-assignments", h.CreateAssignment)

		// Absence request routes
		r.Route("/absence-requests", func(r chi.Router) {
			r.Get("/", h.ListAbsenceRequests)
			r.Post("/", h.CreateAbsenceRequest)
			r.Get("/{id}", h.GetAbsenceRequest)
			r.Put("/{id}", h.UpdateAbsenceRequest)
			r.Put("/{id}/review", h.ReviewAbsenceRequest)
			r.Delete("/{id}", h.DeleteAbsenceRequest)
		})

		// Timesheet routes
		r.Route("/timesheets", func(r chi.Router) {
			r.Post("/", h.CreateTimesheet)
			r.Get("/monthly", h.ListMonthlyTimesheets)
			r.Put("/status", h.UpdateTimesheetStatus)
			r.Get("/{id}", h.GetTimesheet)
			r.Delete("/{id}", h.DeleteTimesheet)
		})

		r.Get("/enums", h.ListEnums)
	})

	return r
}
