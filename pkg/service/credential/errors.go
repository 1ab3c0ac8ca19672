package credential

import "github.com/m-mizutani/goerr/v2"

var (
	ErrEmptyToken    = goerr.New("empty token")
	ErrMissingTenant = goerr.New("tenant ID is required")
	ErrMissingClient = goerr.New("client ID and secret are required")
)
