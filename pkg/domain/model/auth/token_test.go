package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/domain/model/auth"
)

func TestNewToken(t *testing.T) {
	token := auth.NewToken("1001", "octo@example.com", "Octo Cat")

	gt.NoError(t, token.Validate())
	gt.NoError(t, token.ID.Validate())
	gt.Value(t, len(token.Secret.String())).Equal(64)
	gt.Bool(t, token.IsExpired()).False()
	gt.Bool(t, token.ExpiresAt.After(time.Now().Add(auth.TokenLifetime-time.Minute))).True()
}

func TestTokenValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*auth.Token)
	}{
		{"empty sub", func(x *auth.Token) { x.Sub = "" }},
		{"empty secret", func(x *auth.Token) { x.Secret = "" }},
		{"bad id", func(x *auth.Token) { x.ID = "not-a-uuid" }},
		{"zero expiry", func(x *auth.Token) { x.ExpiresAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := auth.NewToken("1001", "octo@example.com", "Octo Cat")
			tt.modify(token)
			gt.Error(t, token.Validate())
		})
	}

	t.Run("nil token", func(t *testing.T) {
		var token *auth.Token
		err := token.Validate()
		gt.Bool(t, errors.Is(err, auth.ErrInvalidToken)).True()
	})
}

func TestTokenIsExpired(t *testing.T) {
	token := auth.NewToken("1001", "", "")
	token.ExpiresAt = time.Now().Add(-time.Second)
	gt.Bool(t, token.IsExpired()).True()
}

func TestTokenDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		token auth.Token
		want  string
	}{
		{"full name", auth.Token{Name: "Octo Cat", Login: "octocat", Email: "o@example.com"}, "Octo Cat"},
		{"login", auth.Token{Name: "  ", Login: "octocat", Email: "o@example.com"}, "octocat"},
		{"email local part", auth.Token{Email: "mona@example.com"}, "mona"},
		{"fallback", auth.Token{}, "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.token.DisplayName()).Equal(tt.want)
		})
	}
}

func TestContextWithToken(t *testing.T) {
	ctx := context.Background()
	gt.Value(t, auth.TokenFromContext(ctx)).Nil()

	token := auth.NewAnonymousUser()
	ctx = auth.ContextWithToken(ctx, token)
	gt.Value(t, auth.TokenFromContext(ctx)).Equal(token)
	gt.Bool(t, token.IsAnonymous()).True()
}
