package api

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	apispec "github.com/pawdesk/pawdesk/api"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/middleware"
	"github.com/pawdesk/pawdesk/internal/swagger"
)

// RouterConfig carries what the HTTP stack needs besides the handlers.
type RouterConfig struct {
	Authenticate openapi3filter.AuthenticationFunc
	CORS         *config.CORSConfig
	RateLimit    *config.RateLimitConfig
	Development  bool
}

// NewRouter builds the full HTTP handler. Routes under /api/v1 are
// validated against the OpenAPI document, which also runs authentication.
func NewRouter(s *Server, cfg RouterConfig) (http.Handler, error) {
	spec, err := apispec.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewMux()
	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.Development))
	r.Use(middleware.NewCORSHandler(cfg.CORS))
	r.Use(middleware.Locale(s.locales))

	r.Get("/health", s.HealthCheck)
	r.Get("/ready", s.ReadinessCheck)
	swagger.Mount(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit))
		r.Use(nethttpmiddleware.OapiRequestValidatorWithOptions(spec, &nethttpmiddleware.Options{
			Options: openapi3filter.Options{
				AuthenticationFunc: cfg.Authenticate,
			},
			ErrorHandler: validationErrorHandler,
		}))
		r.Use(middleware.PrincipalLogger)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", s.SignUp)
				r.Post("/login", s.Login)
				r.Post("/refresh", s.RefreshToken)
				r.Post("/logout", s.Logout)
				r.Post("/verify-email", s.VerifyEmail)
				r.Get("/me", s.GetMe)
			})

			r.Get("/settings", s.GetSettings)
			r.Patch("/settings", s.UpdateSettings)
			r.Get("/subscription", s.GetSubscription)
			r.Get("/tenants", s.ListTenants)

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", s.ListCustomers)
				r.Post("/", s.CreateCustomer)
				r.Get("/{id}", s.GetCustomer)
				r.Patch("/{id}", s.UpdateCustomer)
				r.Delete("/{id}", s.DeleteCustomer)
			})

			r.Route("/pets", func(r chi.Router) {
				r.Get("/", s.ListPets)
				r.Post("/", s.CreatePet)
				r.Get("/{id}", s.GetPet)
				r.Patch("/{id}", s.UpdatePet)
				r.Delete("/{id}", s.DeletePet)
				r.Get("/{id}/photo", s.GetPetPhoto)
				r.Put("/{id}/photo", s.UploadPetPhoto)
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", s.ListServices)
				r.Post("/", s.CreateService)
				r.Get("/{id}", s.GetService)
				r.Patch("/{id}", s.UpdateService)
				r.Delete("/{id}", s.DeleteService)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", s.ListStaff)
				r.Post("/", s.CreateStaff)
				r.Get("/{id}", s.GetStaff)
				r.Patch("/{id}", s.UpdateStaff)
				r.Delete("/{id}", s.DeleteStaff)
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", s.ListAppointments)
				r.Post("/", s.CreateAppointment)
				r.Get("/{id}", s.GetAppointment)
				r.Patch("/{id}", s.UpdateAppointment)
				r.Delete("/{id}", s.DeleteAppointment)
				r.Post("/{id}/cancel", s.CancelAppointment)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.ListTasks)
				r.Post("/", s.CreateTask)
				r.Get("/{id}", s.GetTask)
				r.Patch("/{id}", s.UpdateTask)
				r.Delete("/{id}", s.DeleteTask)
				r.Post("/{id}/complete", s.CompleteTask)
			})

			r.Route("/task-templates", func(r chi.Router) {
				r.Get("/", s.ListTaskTemplates)
				r.Post("/", s.CreateTaskTemplate)
				r.Get("/{id}", s.GetTaskTemplate)
				r.Patch("/{id}", s.UpdateTaskTemplate)
				r.Delete("/{id}", s.DeleteTaskTemplate)
			})

			r.Get("/analytics/summary", s.GetAnalyticsSummary)
			r.Get("/audit-logs", s.ListAuditLogs)
		})
	})

	return r, nil
}

// validationErrorHandler renders validator and authentication failures in
// the API error envelope.
func validationErrorHandler(w http.ResponseWriter, message string, statusCode int) {
	switch statusCode {
	case http.StatusUnauthorized:
		Unauthorized("Authentication required").Write(w)
	case http.StatusNotFound:
		NewError(http.StatusNotFound, CodeResourceNotFound, "Route not found").Write(w)
	case http.StatusMethodNotAllowed:
		NewError(http.StatusMethodNotAllowed, CodeValidationError, "Method not allowed").Write(w)
	default:
		ValidationErr(message, nil).Write(w)
	}
}
