package couchdb

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

const defaultTimeout = 10 * time.Second

// CouchDB is a pairing store backed by one CouchDB database
type CouchDB struct {
	client      *resty.Client
	dbName      string
	matchedUser *matchedUserRepository
}

var _ interfaces.Repository = &CouchDB{}

type Option func(*CouchDB)

// WithBasicAuth sets credentials for every request
func WithBasicAuth(username, password string) Option {
	return func(c *CouchDB) {
		if username != "" {
			c.client.SetBasicAuth(username, password)
		}
	}
}

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *CouchDB) {
		c.client.SetTransport(rt)
	}
}

// WithTenantFilter restricts reads to matched users of one tenant
func WithTenantFilter(tenantID string) Option {
	return func(c *CouchDB) {
		c.matchedUser.tenantID = tenantID
	}
}

// New connects to the CouchDB server at baseURL and creates dbName when it
// does not exist yet.
func New(ctx context.Context, baseURL, dbName string, opts ...Option) (*CouchDB, error) {
	if baseURL == "" {
		return nil, goerr.New("couchdb URL is required")
	}
	if dbName == "" {
		return nil, goerr.New("couchdb database name is required")
	}

	cl := resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout)
	cl.SetHeader("Content-Type", "application/json")
	cl.SetHeader("Accept", "application/json")

	c := &CouchDB{
		client: cl,
		dbName: dbName,
	}
	c.matchedUser = newMatchedUserRepository(cl, dbName)

	for _, opt := range opts {
		opt(c)
	}

	if err := c.ensureDatabase(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CouchDB) ensureDatabase(ctx context.Context) error {
	path := "/" + url.PathEscape(c.dbName)

	resp, err := c.client.R().SetContext(ctx).Head(path)
	if err != nil {
		return goerr.Wrap(err, "failed to check couchdb database", goerr.V("db", c.dbName))
	}
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	if resp.StatusCode() != http.StatusNotFound {
		return goerr.Wrap(ErrUnexpectedStatus, "failed to check couchdb database",
			goerr.V("db", c.dbName),
			goerr.V("status", resp.StatusCode()))
	}

	var ok okResponse
	var dbErr errorResponse
	resp, err = c.client.R().SetContext(ctx).SetResult(&ok).SetError(&dbErr).Put(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create couchdb database", goerr.V("db", c.dbName))
	}
	// 412 means another process created it first
	if resp.StatusCode() == http.StatusPreconditionFailed {
		return nil
	}
	if resp.IsError() || !ok.OK {
		return goerr.Wrap(ErrUnexpectedStatus, "failed to create couchdb database",
			goerr.V("db", c.dbName),
			goerr.V("status", resp.StatusCode()),
			goerr.V("error", dbErr.Error),
			goerr.V("reason", dbErr.Reason))
	}

	logging.From(ctx).Info("Created couchdb database", "db", c.dbName)
	return nil
}

func (c *CouchDB) MatchedUser() interfaces.MatchedUserRepository {
	return c.matchedUser
}

func (c *CouchDB) Close() error {
	return nil
}
