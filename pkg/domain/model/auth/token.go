package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// TokenLifetime is how long a session token stays valid after sign-in
const TokenLifetime = 7 * 24 * time.Hour

const anonymousUserID = "anonymous"

var (
	ErrInvalidTokenID = goerr.New("invalid token ID")
	ErrInvalidToken   = goerr.New("invalid token")
)

// TokenID identifies a session. It is sent to the browser in the token_id cookie.
type TokenID string

func NewTokenID() TokenID {
	return TokenID(uuid.NewString())
}

func (x TokenID) String() string {
	return string(x)
}

func (x TokenID) Validate() error {
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(ErrInvalidTokenID, "token ID is not a UUID", goerr.V("token_id", string(x)))
	}
	return nil
}

// TokenSecret authenticates the holder of a TokenID
type TokenSecret string

func NewTokenSecret() TokenSecret {
	buf := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)
	return TokenSecret(hex.EncodeToString(buf))
}

func (x TokenSecret) String() string {
	return string(x)
}

// Token is a signed-in session. Sub is the GitHub user's numeric ID and is
// the owning user of every Connection created during the session.
type Token struct {
	ID          TokenID     `json:"id" firestore:"id"`
	Secret      TokenSecret `json:"-" firestore:"secret" masq:"secret"`
	Sub         string      `json:"sub" firestore:"sub"`
	Login       string      `json:"login" firestore:"login"`
	Email       string      `json:"email" firestore:"email"`
	Name        string      `json:"name" firestore:"name"`
	AvatarURL   string      `json:"avatar_url" firestore:"avatar_url"`
	AccessToken string      `json:"-" firestore:"access_token" masq:"secret"`
	ExpiresAt   time.Time   `json:"expires_at" firestore:"expires_at"`
	CreatedAt   time.Time   `json:"created_at" firestore:"created_at"`
}

// NewToken creates a session for the given GitHub user
func NewToken(sub, email, name string) *Token {
	now := time.Now()
	return &Token{
		ID:        NewTokenID(),
		Secret:    NewTokenSecret(),
		Sub:       sub,
		Email:     email,
		Name:      name,
		ExpiresAt: now.Add(TokenLifetime),
		CreatedAt: now,
	}
}

// NewAnonymousUser returns the token used when authentication is disabled
func NewAnonymousUser() *Token {
	t := NewToken(anonymousUserID, "", "Anonymous")
	t.Login = anonymousUserID
	return t
}

func (x *Token) Validate() error {
	if x == nil {
		return goerr.Wrap(ErrInvalidToken, "token is nil")
	}
	if err := x.ID.Validate(); err != nil {
		return err
	}
	if x.Secret == "" {
		return goerr.Wrap(ErrInvalidToken, "secret is empty", goerr.V("token_id", x.ID))
	}
	if x.Sub == "" {
		return goerr.Wrap(ErrInvalidToken, "sub is empty", goerr.V("token_id", x.ID))
	}
	if x.ExpiresAt.IsZero() {
		return goerr.Wrap(ErrInvalidToken, "expiration is not set", goerr.V("token_id", x.ID))
	}
	return nil
}

func (x *Token) IsExpired() bool {
	return time.Now().After(x.ExpiresAt)
}

// IsAnonymous reports whether the token belongs to the no-auth placeholder user
func (x *Token) IsAnonymous() bool {
	return x.Sub == anonymousUserID
}

// DisplayName picks the name shown in the dashboard header: full name, then
// GitHub login, then the local part of the email address.
func (x *Token) DisplayName() string {
	if name := strings.TrimSpace(x.Name); name != "" {
		return name
	}
	if x.Login != "" {
		return x.Login
	}
	if local, _, ok := strings.Cut(x.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

type ctxTokenKey struct{}

func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

// TokenFromContext returns the token attached by the auth middleware, or nil.
func TokenFromContext(ctx context.Context) *Token {
	token, _ := ctx.Value(ctxTokenKey{}).(*Token)
	return token
}
