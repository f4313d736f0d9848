package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidBackend    = goerr.New("invalid repository backend")
	ErrMissingParameter  = goerr.New("required parameter is missing")
	ErrInvalidLogLevel   = goerr.New("invalid log level")
	ErrInvalidLogFormat  = goerr.New("invalid log format")
	ErrUnknownNavItem    = goerr.New("unknown navigation item")
	ErrInvalidRunnerSize = goerr.New("invalid runner CPU size")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	ParameterKey  = "parameter"
)
