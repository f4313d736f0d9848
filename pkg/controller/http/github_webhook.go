package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/errutil"
	"github.com/m2rads/lime/pkg/utils/logging"
	"github.com/m2rads/lime/pkg/utils/safe"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
	deliveryHeader  = "X-GitHub-Delivery"

	signaturePrefix = "sha256="

	// GitHub caps webhook payloads at 25 MB
	maxWebhookBodySize = 25 << 20
)

var (
	ErrSecretNotConfigured = goerr.New("webhook secret is not configured")
	ErrMissingSignature    = goerr.New("missing signature")
	ErrInvalidSignature    = goerr.New("invalid signature")
)

type ctxWebhookBodyKey struct{}

// verifyGitHubSignature checks signature against the HMAC-SHA256 of body.
// The comparison runs in constant time. Neither the secret nor the expected
// digest appears in the returned error.
func verifyGitHubSignature(secret, signature string, body []byte) error {
	if secret == "" {
		return ErrSecretNotConfigured
	}
	if signature == "" {
		return ErrMissingSignature
	}

	hexDigest, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return goerr.Wrap(ErrInvalidSignature, "unsupported signature format")
	}
	given, err := hex.DecodeString(hexDigest)
	if err != nil {
		return goerr.Wrap(ErrInvalidSignature, "signature is not hex encoded")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	if !hmac.Equal(mac.Sum(nil), given) {
		return ErrInvalidSignature
	}
	return nil
}

// githubSignatureMiddleware rejects deliveries whose X-Hub-Signature-256 does
// not match the body. The verified body is restored for the next handler.
func githubSignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			reject := func(err error) {
				logger := logging.From(ctx)
				if errors.Is(err, ErrSecretNotConfigured) {
					logger.Error("webhook rejected, secret is not configured")
				} else {
					logger.Warn("webhook signature verification failed",
						"error", err,
						"event", r.Header.Get(eventHeader),
						"delivery", r.Header.Get(deliveryHeader),
					)
				}
				writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
			}

			// unsigned deliveries are rejected before the body is buffered
			if secret == "" {
				safe.Close(ctx, r.Body)
				reject(ErrSecretNotConfigured)
				return
			}
			signature := r.Header.Get(signatureHeader)
			if signature == "" {
				safe.Close(ctx, r.Body)
				reject(ErrMissingSignature)
				return
			}

			body, err := safe.ReadAll(r.Body, maxWebhookBodySize)
			safe.Close(ctx, r.Body)
			if err != nil {
				status := http.StatusBadRequest
				if errors.Is(err, safe.ErrBodyTooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				logging.From(ctx).Warn("failed to read webhook body", "error", err)
				writeJSON(ctx, w, status, errorResponse{Error: http.StatusText(status)})
				return
			}

			if err := verifyGitHubSignature(secret, signature, body); err != nil {
				reject(err)
				return
			}

			ctx = context.WithValue(ctx, ctxWebhookBodyKey{}, body)
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func webhookBodyFromContext(ctx context.Context) []byte {
	body, _ := ctx.Value(ctxWebhookBodyKey{}).([]byte)
	return body
}

// githubWebhookHandler parses a verified delivery and dispatches it.
// Handler failures are logged only; GitHub gets 200 so that it does not retry.
func githubWebhookHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		event := types.GitHubEvent(r.Header.Get(eventHeader))
		delivery := r.Header.Get(deliveryHeader)

		logger := logging.From(ctx).With("event", event, "delivery", delivery)
		ctx = logging.With(ctx, logger)

		ev, err := model.ParseWebhookEvent(event, webhookBodyFromContext(ctx))
		if err != nil {
			logger.Warn("malformed webhook payload", "error", err)
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
			return
		}

		logger.Info("webhook received")
		if err := uc.Webhook.HandleEvent(ctx, ev); err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "webhook handler failed",
				goerr.V(model.EventTypeKey, event), goerr.V(model.DeliveryIDKey, delivery)),
				"failed to handle GitHub webhook")
		}

		writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
	}
}
