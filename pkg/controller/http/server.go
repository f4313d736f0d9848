package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/logging"
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	authUC        AuthUseCase
	webhookSecret string
	appName       string
	site          siteResolver
}

type Options func(*Server)

func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

// WithWebhookSecret sets the GitHub webhook secret. Without it every
// delivery is rejected.
func WithWebhookSecret(secret string) Options {
	return func(s *Server) {
		s.webhookSecret = secret
	}
}

// WithGitHubAppName sets the App slug used for the install redirect
func WithGitHubAppName(name string) Options {
	return func(s *Server) {
		s.appName = name
	}
}

// WithSiteURL sets the explicit site URL and the platform deployment URL.
// Either may be empty; the request origin is used as fallback.
func WithSiteURL(override, deployment string) Options {
	return func(s *Server) {
		s.site = siteResolver{override: override, deployment: deployment}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// GitHub webhook, authenticated by signature only
		r.With(githubSignatureMiddleware(s.webhookSecret)).
			Post("/github/webhook", githubWebhookHandler(uc))

		if s.authUC != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Get("/login", authLoginHandler(s.authUC, s.site))
				r.Get("/callback", authCallbackHandler(s.authUC, s.site))
				r.Post("/logout", authLogoutHandler(s.authUC))
				r.With(authMiddleware(s.authUC, s.unauthorizedJSON)).Get("/me", authMeHandler())
			})
		}

		// Browser navigations redirect to the sign-in page
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authUC, s.redirectToLogin))
			r.Get("/github/setup", githubSetupHandler(uc, s.site))
			r.Get("/github/install", githubInstallHandler(s.appName))
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authUC, s.unauthorizedJSON))
			r.Get("/organizations", listOrganizationsHandler(uc))
			r.Get("/organizations/active", activeOrganizationHandler(uc))
			r.Post("/organizations/{id}/activate", activateOrganizationHandler(uc))
			r.Get("/repositories", listRepositoriesHandler(uc))
			r.Get("/runners/options", runnerOptionsHandler(uc))
			r.Post("/runners", createRunnerHandler(uc))
			r.Get("/navigation", navigationHandler(uc))
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) unauthorizedJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.site.join(r, "/auth/login"), http.StatusFound)
}

// requestLogger attaches a logger carrying the request ID to the context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.From(ctx).With("request_id", middleware.GetReqID(ctx))
		next.ServeHTTP(w, r.WithContext(logging.With(ctx, logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
