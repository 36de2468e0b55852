package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taskhive-api/internal/application/auth"
	"github.com/taskhive-api/internal/application/session"
	"github.com/taskhive-api/internal/application/task"
	"github.com/taskhive-api/internal/application/user"
	"github.com/taskhive-api/internal/config"
	jwtinfra "github.com/taskhive-api/internal/infrastructure/jwt"
	"github.com/taskhive-api/internal/infrastructure/smtp"
	"github.com/taskhive-api/internal/infrastructure/sns"
	"github.com/taskhive-api/internal/otp"
	"github.com/taskhive-api/internal/transport/http/handler"
	appmiddleware "github.com/taskhive-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	SessionRepo SessionRepository
	PendingRepo PendingRepository
	TaskRepo    TaskRepository
	OTPStore    otp.Store
	ObjectStore ObjectStore
	Mailer      smtp.Mailer
	Events      sns.EventPublisher // nil disables task event publishing
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	codes := otp.NewManager(deps.OTPStore, cfg.OTPTTL)
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		PendingRepo: deps.PendingRepo,
		SessionRepo: deps.SessionRepo,
		Codes:       codes,
		Mailer:      deps.Mailer,
		Tokens:      deps.JWTProvider,
		PendingTTL:  cfg.PendingRegistrationTTL,
	})
	sessionSvc := session.NewService(deps.UserRepo, deps.SessionRepo, deps.JWTProvider)
	userSvc := user.NewService(deps.UserRepo, deps.SessionRepo)
	taskSvc := task.NewService(deps.TaskRepo, deps.ObjectStore, deps.Events)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(authSvc, userSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)
	taskH := handler.NewTaskHandler(taskSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Check)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/users/verify", userH.Verify)
		r.With(sensitiveRL.Limit).Post("/users/resend-code", userH.ResendCode)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/password-recovery/request", pwH.Request)
		r.With(sensitiveRL.Limit).Post("/password-recovery/confirm", pwH.Confirm)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Post("/password-recovery/change-password", pwH.ChangePassword)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)
			r.Delete("/users/me", userH.DeleteMe)
			r.Post("/users/email-change", userH.EmailChange)

			r.Post("/tasks", taskH.Create)
			r.Get("/tasks", taskH.List)
			r.Get("/tasks/export", taskH.ExportCSV)
			r.Get("/tasks/{id}", taskH.Get)
			r.Put("/tasks/{id}", taskH.Update)
			r.Delete("/tasks/{id}", taskH.Delete)
			r.Post("/tasks/{id}/attachments", taskH.AddAttachment)
			r.Get("/tasks/{id}/attachments/{attachmentID}", taskH.DownloadAttachment)
			r.Delete("/tasks/{id}/attachments/{attachmentID}", taskH.DeleteAttachment)
		})
	})

	return r
}
