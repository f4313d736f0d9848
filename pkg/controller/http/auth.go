package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/errutil"
)

type AuthUseCase = usecase.AuthUseCaseInterface

const (
	stateCookieName       = "oauth_state"
	tokenIDCookieName     = "token_id"
	tokenSecretCookieName = "token_secret"

	callbackPath = "/api/auth/callback"
)

type userMeResponse struct {
	Sub         string `json:"sub"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// generateState generates a random state parameter for OAuth
func generateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", goerr.Wrap(err, "failed to generate random state")
	}
	return hex.EncodeToString(bytes), nil
}

func newCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{tokenIDCookieName, tokenSecretCookieName} {
		c := newCookie(r, name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// authLoginHandler handles the OAuth login initiation
func authLoginHandler(authUC AuthUseCase, site siteResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// For NoAuthn mode, redirect to home
		if authUC.IsNoAuthn() {
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		// Generate state parameter to prevent CSRF
		state, err := generateState()
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		stateCookie := newCookie(r, stateCookieName, state)
		stateCookie.MaxAge = 600 // 10 minutes
		http.SetCookie(w, stateCookie)

		http.Redirect(w, r, authUC.GetAuthURL(state, site.join(r, callbackPath)), http.StatusTemporaryRedirect)
	}
}

// authCallbackHandler handles the OAuth callback
func authCallbackHandler(authUC AuthUseCase, site siteResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Verify state parameter
		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "state cookie is missing"), http.StatusBadRequest)
			return
		}

		state := r.URL.Query().Get("state")
		if state == "" || state != stateCookie.Value {
			errutil.HandleHTTP(r.Context(), w, goerr.New("invalid state parameter"), http.StatusBadRequest)
			return
		}

		clearState := newCookie(r, stateCookieName, "")
		clearState.MaxAge = -1
		http.SetCookie(w, clearState)

		code := r.URL.Query().Get("code")
		if code == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing authorization code"), http.StatusBadRequest)
			return
		}

		token, err := authUC.HandleCallback(r.Context(), code, site.join(r, callbackPath))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		tokenIDCookie := newCookie(r, tokenIDCookieName, token.ID.String())
		tokenIDCookie.Expires = token.ExpiresAt
		tokenSecretCookie := newCookie(r, tokenSecretCookieName, token.Secret.String())
		tokenSecretCookie.Expires = token.ExpiresAt

		http.SetCookie(w, tokenIDCookie)
		http.SetCookie(w, tokenSecretCookie)

		http.Redirect(w, r, site.join(r, "/dashboard"), http.StatusTemporaryRedirect)
	}
}

// authLogoutHandler handles user logout
func authLogoutHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokenIDCookie, err := r.Cookie(tokenIDCookieName); err == nil {
			tokenID := auth.TokenID(tokenIDCookie.Value)
			if err := tokenID.Validate(); err == nil {
				if err := authUC.Logout(r.Context(), tokenID); err != nil {
					_ = errutil.Handle(r.Context(), err, "failed to delete session on logout")
				}
			}
		}

		clearSessionCookies(w, r)
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

// authMeHandler returns the signed-in user's profile
func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromContext(r.Context())
		writeJSON(r.Context(), w, http.StatusOK, userMeResponse{
			Sub:         token.Sub,
			Login:       token.Login,
			Email:       token.Email,
			Name:        token.Name,
			DisplayName: token.DisplayName(),
			AvatarURL:   token.AvatarURL,
		})
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}
