package http

import (
	"errors"
	"net/http"

	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/logging"
)

// authMiddleware validates the session cookies and stores the token in the
// request context. Requests without a valid session are passed to reject.
func authMiddleware(authUC AuthUseCase, reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Without auth configured, every request runs as the anonymous user
			if authUC == nil {
				ctx := auth.ContextWithToken(r.Context(), auth.NewAnonymousUser())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// NoAuthn mode returns the configured development user
			if authUC.IsNoAuthn() {
				token, err := authUC.ValidateToken(r.Context(), "", "")
				if err != nil {
					reject(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(auth.ContextWithToken(r.Context(), token)))
				return
			}

			tokenIDCookie, err := r.Cookie(tokenIDCookieName)
			if err != nil {
				reject(w, r)
				return
			}

			tokenSecretCookie, err := r.Cookie(tokenSecretCookieName)
			if err != nil {
				reject(w, r)
				return
			}

			tokenID := auth.TokenID(tokenIDCookie.Value)
			tokenSecret := auth.TokenSecret(tokenSecretCookie.Value)

			token, err := authUC.ValidateToken(r.Context(), tokenID, tokenSecret)
			if err != nil {
				logging.From(r.Context()).Debug("session rejected", "error", err)
				if errors.Is(err, usecase.ErrSessionRevoked) || errors.Is(err, usecase.ErrTokenExpired) {
					clearSessionCookies(w, r)
				}
				reject(w, r)
				return
			}

			ctx := auth.ContextWithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
