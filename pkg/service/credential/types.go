package credential

import (
	"context"

	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

// Source acquires a new token from the identity provider on every call
type Source interface {
	Fetch(ctx context.Context) (*model.AuthToken, error)
}

// Provider returns a usable bearer token, which may come from a cache
type Provider interface {
	Token(ctx context.Context) (*model.AuthToken, error)
}
