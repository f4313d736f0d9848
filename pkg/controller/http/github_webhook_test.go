package http_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	httpctrl "github.com/m2rads/lime/pkg/controller/http"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/repository/memory"
	"github.com/m2rads/lime/pkg/usecase"
)

const testWebhookSecret = "It's a Secret to Everybody"

func computeGitHubSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyGitHubSignature(t *testing.T) {
	body := []byte("Hello, World!")

	t.Run("known vector", func(t *testing.T) {
		// example published in the GitHub webhook documentation
		sig := "sha256=757107ea0eb2509fc211221cce984b8a37570b6d7586c22c46f4379c8b043e17"
		gt.NoError(t, httpctrl.VerifyGitHubSignature(testWebhookSecret, sig, body))
	})

	t.Run("round trip", func(t *testing.T) {
		payload := []byte(`{"action":"deleted","installation":{"id":42}}`)
		gt.NoError(t, httpctrl.VerifyGitHubSignature("s3cret", computeGitHubSignature("s3cret", payload), payload))
	})

	t.Run("empty body verifies against HMAC of empty string", func(t *testing.T) {
		gt.NoError(t, httpctrl.VerifyGitHubSignature("s3cret", computeGitHubSignature("s3cret", nil), []byte{}))
	})

	t.Run("every single-bit mutation of the body is rejected", func(t *testing.T) {
		sig := computeGitHubSignature("s3cret", body)
		for i := range body {
			for bit := 0; bit < 8; bit++ {
				mutated := append([]byte(nil), body...)
				mutated[i] ^= 1 << bit
				gt.Error(t, httpctrl.VerifyGitHubSignature("s3cret", sig, mutated)).Is(httpctrl.ErrInvalidSignature)
			}
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := computeGitHubSignature("other", body)
		gt.Error(t, httpctrl.VerifyGitHubSignature("s3cret", sig, body)).Is(httpctrl.ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		gt.Error(t, httpctrl.VerifyGitHubSignature("s3cret", "", body)).Is(httpctrl.ErrMissingSignature)
	})

	t.Run("secret not configured", func(t *testing.T) {
		sig := computeGitHubSignature("", body)
		gt.Error(t, httpctrl.VerifyGitHubSignature("", sig, body)).Is(httpctrl.ErrSecretNotConfigured)
	})

	t.Run("malformed signatures", func(t *testing.T) {
		valid := computeGitHubSignature("s3cret", body)
		for _, sig := range []string{
			"sha1=" + strings.TrimPrefix(valid, "sha256="),
			strings.TrimPrefix(valid, "sha256="),
			"sha256=zz",
			"sha256=",
			valid[:len(valid)-2],
			valid + "00",
			"sha256=" + strings.Repeat("\x00", 64),
		} {
			gt.Error(t, httpctrl.VerifyGitHubSignature("s3cret", sig, body)).Is(httpctrl.ErrInvalidSignature)
		}
	})

	t.Run("error does not leak secret or digest", func(t *testing.T) {
		err := httpctrl.VerifyGitHubSignature("s3cret", "sha256=00", body)
		gt.Error(t, err)
		expected := strings.TrimPrefix(computeGitHubSignature("s3cret", body), "sha256=")
		gt.Bool(t, strings.Contains(err.Error(), "s3cret")).False()
		gt.Bool(t, strings.Contains(err.Error(), expected)).False()
	})
}

type webhookFixture struct {
	server *httpctrl.Server
	repo   *memory.Memory
	uc     *usecase.UseCases
}

func newWebhookFixture(t *testing.T, secret string) *webhookFixture {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	gh := newFakeGitHub()
	gh.addInstallation(42, 7, "acme")
	gh.addInstallation(43, 8, "beta")
	uc := usecase.New(repo, usecase.WithGitHub(gh))

	// two users share installation 42, a third user is on 43
	for _, c := range []struct {
		user model.UserID
		id   string
	}{{"1001", "42"}, {"2002", "42"}, {"3003", "43"}} {
		_, err := uc.Connection.CompleteSetup(ctx, c.user, c.id)
		gt.NoError(t, err).Required()
	}

	return &webhookFixture{
		server: httpctrl.New(uc, httpctrl.WithWebhookSecret(secret)),
		repo:   repo,
		uc:     uc,
	}
}

func (f *webhookFixture) deliver(event string, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/github/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func (f *webhookFixture) connections(t *testing.T, user model.UserID) []*model.Connection {
	t.Helper()
	conns, err := f.repo.Connection().ListByUser(context.Background(), user)
	gt.NoError(t, err).Required()
	return conns
}

func TestWebhookEndpoint_Signature(t *testing.T) {
	f := newWebhookFixture(t, "s3cret")
	body := []byte(`{"action":"deleted","installation":{"id":42}}`)

	t.Run("missing signature", func(t *testing.T) {
		w := f.deliver("installation", body, "")
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, f.connections(t, "1001")).Length(1)
	})

	t.Run("invalid signature", func(t *testing.T) {
		w := f.deliver("installation", body, computeGitHubSignature("wrong", body))
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, f.connections(t, "1001")).Length(1)
	})

	t.Run("invalid signature on empty body", func(t *testing.T) {
		w := f.deliver("installation", nil, "sha256="+strings.Repeat("0", 64))
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("secret not configured rejects everything", func(t *testing.T) {
		f := newWebhookFixture(t, "")
		w := f.deliver("installation", body, computeGitHubSignature("", body))
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, f.connections(t, "1001")).Length(1)
	})
}

func TestWebhookEndpoint_InstallationDeleted(t *testing.T) {
	f := newWebhookFixture(t, "s3cret")
	body := []byte(`{"action":"deleted","installation":{"id":"42","account":{"id":7,"login":"acme"}},"sender":{"login":"octocat"}}`)

	w := f.deliver("installation", body, computeGitHubSignature("s3cret", body))
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"success":true`)

	gt.Array(t, f.connections(t, "1001")).Length(0)
	gt.Array(t, f.connections(t, "2002")).Length(0)
	others := f.connections(t, "3003")
	gt.Array(t, others).Length(1)
	gt.Value(t, others[0].InstallationID).Equal(model.InstallationID(43))
}

func TestWebhookEndpoint_Payloads(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		body   string
		status int
	}{
		{"push is observed only", "push", `{"ref":"refs/heads/main","repository":{"full_name":"acme/app"}}`, http.StatusOK},
		{"unknown event is acknowledged", "pull_request", `{"action":"opened"}`, http.StatusOK},
		{"ping", "ping", `{"zen":"Keep it logically awesome.","hook_id":1}`, http.StatusOK},
		{"created is logged", "installation", `{"action":"created","installation":{"id":42}}`, http.StatusOK},
		{"installation without action is acknowledged", "installation", `{"installation":{"id":42}}`, http.StatusOK},
		{"malformed JSON", "installation", `{"action":`, http.StatusBadRequest},
		{"not an object", "push", `[1,2,3]`, http.StatusBadRequest},
		{"empty body", "push", ``, http.StatusBadRequest},
		{"deleted without installation id", "installation", `{"action":"deleted"}`, http.StatusBadRequest},
		{"non-numeric installation id", "installation", `{"action":"deleted","installation":{"id":"abc"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t, "s3cret")
			body := []byte(tt.body)

			w := f.deliver(tt.event, body, computeGitHubSignature("s3cret", body))
			gt.Value(t, w.Code).Equal(tt.status)

			conns := f.connections(t, "1001")
			gt.Array(t, conns).Length(1)
			gt.Bool(t, conns[0].IsActive).True()
		})
	}
}

func TestWebhookEndpoint_Suspend(t *testing.T) {
	f := newWebhookFixture(t, "s3cret")
	body := []byte(`{"action":"suspend","installation":{"id":42}}`)

	w := f.deliver("installation", body, computeGitHubSignature("s3cret", body))
	gt.Value(t, w.Code).Equal(http.StatusOK)

	conns := f.connections(t, "1001")
	gt.Array(t, conns).Length(1)
	gt.Bool(t, conns[0].IsActive).False()

	active, err := f.uc.Connection.GetActiveOrganization(context.Background(), "3003")
	gt.NoError(t, err).Required()
	gt.Value(t, active).NotNil()
}

type brokenStore struct {
	*memory.Memory
}

func (r *brokenStore) Connection() interfaces.ConnectionRepository {
	return &brokenConnections{ConnectionRepository: r.Memory.Connection()}
}

type brokenConnections struct {
	interfaces.ConnectionRepository
}

func (r *brokenConnections) RemoveByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	return nil, goerr.New("connection store unavailable")
}

func TestWebhookEndpoint_HandlerFailure(t *testing.T) {
	repo := &brokenStore{Memory: memory.New()}
	server := httpctrl.New(usecase.New(repo), httpctrl.WithWebhookSecret("s3cret"))

	body := []byte(`{"action":"deleted","installation":{"id":42}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/github/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-GitHub-Event", "installation")
	req.Header.Set("X-Hub-Signature-256", computeGitHubSignature("s3cret", body))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"success":true`)
}

type fillReader struct{}

func (fillReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}

func TestWebhookEndpoint_OversizedBody(t *testing.T) {
	f := newWebhookFixture(t, "s3cret")
	oversized := func() io.Reader {
		return io.LimitReader(fillReader{}, 25<<20+1)
	}

	t.Run("unsigned delivery is rejected before reading", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/github/webhook", oversized())
		req.Header.Set("X-GitHub-Event", "installation")
		w := httptest.NewRecorder()
		f.server.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("signed delivery is too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/github/webhook", oversized())
		req.Header.Set("X-GitHub-Event", "installation")
		req.Header.Set("X-Hub-Signature-256", "sha256="+strings.Repeat("0", 64))
		w := httptest.NewRecorder()
		f.server.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
	})
}
