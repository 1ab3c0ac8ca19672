package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig        = goerr.New("invalid configuration")
	ErrMissingAppID         = goerr.New("app ID is required")
	ErrMissingAppSecret     = goerr.New("app secret is required")
	ErrDuplicateUserID      = goerr.New("duplicate matched user ID")
	ErrInvalidBackend       = goerr.New("invalid repository backend")
	ErrInvalidLogLevel      = goerr.New("invalid log level")
	ErrInvalidLogFormat     = goerr.New("invalid log format")
	ErrMissingBackendOption = goerr.New("repository backend option is required")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	UserIDKey     = "user_id"
	UserIndexKey  = "user_index"
	BackendKey    = "backend"
)
