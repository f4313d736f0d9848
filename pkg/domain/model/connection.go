package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID is the GitHub user ID of a signed-in dashboard user
type UserID string

func (x UserID) String() string { return string(x) }

// ConnectionID identifies a Connection record
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

func (x ConnectionID) String() string { return string(x) }

// OrgID is the GitHub account ID of an organization (or user account) the
// App was installed on
type OrgID int64

func (x OrgID) String() string { return strconv.FormatInt(int64(x), 10) }

// InstallationID is the GitHub App installation ID
type InstallationID int64

func (x InstallationID) String() string { return strconv.FormatInt(int64(x), 10) }

// ParseInstallationID parses a decimal installation ID as received in query
// parameters and webhook payloads
func ParseInstallationID(s string) (InstallationID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, goerr.Wrap(ErrInvalidInstallationID, "installation ID must be a positive integer", goerr.V("installation_id", s))
	}
	return InstallationID(v), nil
}

// Connection links one dashboard user to one GitHub organization through an
// App installation. A user has at most one active Connection.
type Connection struct {
	ID             ConnectionID
	UserID         UserID
	OrgID          OrgID
	OrgName        string
	OrgAvatarURL   string
	InstallationID InstallationID
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConnectionInput carries the organization data observed during an
// installation flow
type ConnectionInput struct {
	UserID         UserID
	OrgID          OrgID
	OrgName        string
	OrgAvatarURL   string
	InstallationID InstallationID
}

func (x ConnectionInput) Validate() error {
	if x.UserID == "" {
		return goerr.Wrap(ErrInvalidConnection, "user ID is required")
	}
	if x.OrgID <= 0 {
		return goerr.Wrap(ErrInvalidConnection, "org ID is required", goerr.V(UserIDKey, x.UserID))
	}
	if x.OrgName == "" {
		return goerr.Wrap(ErrInvalidConnection, "org name is required", goerr.V(OrgIDKey, x.OrgID))
	}
	if x.InstallationID <= 0 {
		return goerr.Wrap(ErrInvalidConnection, "installation ID is required", goerr.V(OrgIDKey, x.OrgID))
	}
	return nil
}

// NewConnection builds an active Connection from input
func NewConnection(input ConnectionInput, now time.Time) *Connection {
	return &Connection{
		ID:             NewConnectionID(),
		UserID:         input.UserID,
		OrgID:          input.OrgID,
		OrgName:        input.OrgName,
		OrgAvatarURL:   input.OrgAvatarURL,
		InstallationID: input.InstallationID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Reconnect applies input to an existing Connection for the same org and
// marks it active
func (x *Connection) Reconnect(input ConnectionInput, now time.Time) {
	x.OrgName = input.OrgName
	x.OrgAvatarURL = input.OrgAvatarURL
	x.InstallationID = input.InstallationID
	x.IsActive = true
	x.UpdatedAt = now
}

// CountActive returns how many of conns are active
func CountActive(conns []*Connection) int {
	n := 0
	for _, c := range conns {
		if c.IsActive {
			n++
		}
	}
	return n
}
