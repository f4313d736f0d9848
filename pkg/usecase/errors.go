package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrInvalidTokenSecret   = goerr.New("invalid token secret")
	ErrTokenExpired         = goerr.New("token expired")
	ErrSessionRevoked       = goerr.New("GitHub access was revoked")
	ErrNoActiveOrganization = goerr.New("no active organization")
	ErrGitHubNotConfigured  = goerr.New("GitHub App is not configured")
)

// Context keys for error values
const (
	TokenIDKey = "token_id"
	QueryKey   = "query"
)
