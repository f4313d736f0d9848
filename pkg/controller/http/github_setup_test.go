package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/m2rads/lime/pkg/controller/http"
	"github.com/m2rads/lime/pkg/repository/memory"
	"github.com/m2rads/lime/pkg/usecase"
)

func newSetupServer(t *testing.T) (*httpctrl.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	gh := newFakeGitHub()
	gh.addInstallation(42, 7, "acme")

	authUC := usecase.NewNoAuthnUseCase(repo, "1001", "octocat", "octo@example.com", "Octo")
	uc := usecase.New(repo, usecase.WithGitHub(gh), usecase.WithAuth(authUC))
	srv := httpctrl.New(uc,
		httpctrl.WithAuth(authUC),
		httpctrl.WithSiteURL("https://lime.dev", ""),
		httpctrl.WithGitHubAppName("lime-test"),
	)
	return srv, repo
}

func TestGitHubSetup(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		location string
		stored   int
	}{
		{"success", "?installation_id=42&setup_action=install", "https://lime.dev/dashboard?success=installation_complete", 1},
		{"missing installation id", "", "https://lime.dev/dashboard?error=installation_failed", 0},
		{"malformed installation id", "?installation_id=abc", "https://lime.dev/dashboard?error=installation_failed", 0},
		{"unknown installation", "?installation_id=404", "https://lime.dev/dashboard?error=installation_failed", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, repo := newSetupServer(t)

			req := httptest.NewRequest(http.MethodGet, "/api/github/setup"+tt.query, nil)
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			gt.Value(t, w.Code).Equal(http.StatusFound)
			gt.Value(t, w.Header().Get("Location")).Equal(tt.location)

			conns, err := repo.Connection().ListByUser(context.Background(), "1001")
			gt.NoError(t, err).Required()
			gt.Array(t, conns).Length(tt.stored)
		})
	}
}

func TestGitHubInstallRedirect(t *testing.T) {
	srv, _ := newSetupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/github/install", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	gt.Value(t, w.Code).Equal(http.StatusFound)
	gt.Value(t, w.Header().Get("Location")).Equal("https://github.com/apps/lime-test/installations/new")
}

func TestRequestOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/github/setup", nil)
	req.Host = "10.0.0.5:8080"
	gt.Value(t, httpctrl.RequestOrigin(req)).Equal("http://10.0.0.5:8080")

	req.Header.Set("X-Forwarded-Host", "lime.example.com, proxy.internal")
	req.Header.Set("X-Forwarded-Proto", "https")
	gt.Value(t, httpctrl.RequestOrigin(req)).Equal("https://lime.example.com")
}
