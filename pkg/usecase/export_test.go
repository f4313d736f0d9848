package usecase

import (
	"time"

	"github.com/m2rads/lime/pkg/domain/model"
)

var FilterRepositories = filterRepositories

// SetClock replaces the limiter clock for testing
func (l *RefreshLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// NewActiveOrgCache is exported for testing
var NewActiveOrgCache = newActiveOrgCache

// InvalidateActiveOrg drops the cached active organization of users
func (uc *ConnectionUseCase) InvalidateActiveOrg(users ...model.UserID) {
	uc.cache.invalidate(users...)
}
