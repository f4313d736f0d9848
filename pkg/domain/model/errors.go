package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidConnection     = goerr.New("invalid connection")
	ErrInvalidInstallationID = goerr.New("invalid installation ID")
	ErrInvalidWebhookPayload = goerr.New("invalid webhook payload")
	ErrInvalidRunnerRequest  = goerr.New("invalid runner request")
)

// Context keys for error values
const (
	UserIDKey         = "user_id"
	OrgIDKey          = "org_id"
	ConnectionIDKey   = "connection_id"
	InstallationIDKey = "installation_id"
	EventTypeKey      = "event_type"
	DeliveryIDKey     = "delivery_id"
)
