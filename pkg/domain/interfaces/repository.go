package interfaces

import (
	"context"
	"time"

	"github.com/m2rads/lime/pkg/domain/model/auth"
)

// Repository defines the interface for data persistence
type Repository interface {
	Connection() ConnectionRepository

	// Auth methods
	PutToken(ctx context.Context, token *auth.Token) error
	GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error)
	DeleteToken(ctx context.Context, tokenID auth.TokenID) error

	// TryAcquireRefresh records a session refresh for key at now and returns
	// true, unless a previous refresh for key happened less than window ago.
	// Backends shared by several processes make the throttle cluster-wide.
	TryAcquireRefresh(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error)

	Close() error
}
