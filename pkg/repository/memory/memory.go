package memory

import (
	"github.com/m2rads/lime/pkg/domain/interfaces"
)

// ErrNotFound is returned for missing records
var ErrNotFound = interfaces.ErrNotFound

// Memory keeps all state in process. Intended for development and tests; a
// refresh throttle backed by Memory only covers the current instance.
type Memory struct {
	connection *connectionRepository
	tokens     *tokenStore
	refresh    *refreshStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		connection: newConnectionRepository(),
		tokens:     newTokenStore(),
		refresh:    newRefreshStore(),
	}
}

func (m *Memory) Connection() interfaces.ConnectionRepository {
	return m.connection
}

func (m *Memory) Close() error {
	return nil
}
