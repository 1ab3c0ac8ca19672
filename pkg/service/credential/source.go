package credential

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultAuthorityURL = "https://login.microsoftonline.com"

	GraphScope = "https://graph.microsoft.com/.default"

	// BotFrameworkTenant is the tenant that issues tokens for bot service principals
	BotFrameworkTenant = "botframework.com"
	BotFrameworkScope  = "https://api.botframework.com/.default"
)

var sharePointHost = regexp.MustCompile(`https://(.+?)\.sharepoint\.com`)

// ResolveTenant returns tenantID when set. Otherwise it derives
// "<name>.onmicrosoft.com" from a SharePoint root site URL such as
// https://contoso.sharepoint.com.
func ResolveTenant(tenantID, rootSiteURL string) (string, error) {
	if tenantID != "" {
		return tenantID, nil
	}

	m := sharePointHost.FindStringSubmatch(strings.ToLower(rootSiteURL))
	if len(m) < 2 || m[1] == "" {
		return "", goerr.Wrap(ErrMissingTenant, "cannot derive tenant from root site URL",
			goerr.V("root_site_url", rootSiteURL))
	}
	return m[1] + ".onmicrosoft.com", nil
}

// ClientCredentials fetches tokens with the OAuth2 client credentials grant
type ClientCredentials struct {
	authorityURL string
	httpClient   *http.Client
	config       *clientcredentials.Config
}

var _ Source = &ClientCredentials{}

// SourceOption configures ClientCredentials
type SourceOption func(*ClientCredentials)

// WithAuthorityURL overrides the identity provider host
func WithAuthorityURL(u string) SourceOption {
	return func(s *ClientCredentials) {
		if u != "" {
			s.authorityURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for token requests
func WithHTTPClient(c *http.Client) SourceOption {
	return func(s *ClientCredentials) {
		s.httpClient = c
	}
}

// NewClientCredentials builds a token source for tenant and scope
func NewClientCredentials(tenantID, clientID, clientSecret, scope string, opts ...SourceOption) (*ClientCredentials, error) {
	if tenantID == "" {
		return nil, goerr.Wrap(ErrMissingTenant, "failed to create client credentials source")
	}
	if clientID == "" || clientSecret == "" {
		return nil, goerr.Wrap(ErrMissingClient, "failed to create client credentials source",
			goerr.V("tenant_id", tenantID))
	}

	s := &ClientCredentials{
		authorityURL: DefaultAuthorityURL,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.config = &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     s.authorityURL + "/" + tenantID + "/oauth2/v2.0/token",
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return s, nil
}

// TokenURL returns the endpoint tokens are requested from
func (s *ClientCredentials) TokenURL() string {
	return s.config.TokenURL
}

func (s *ClientCredentials) Fetch(ctx context.Context) (*model.AuthToken, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.config.Token(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to acquire token", goerr.V("token_url", s.TokenURL()))
	}

	return &model.AuthToken{
		Value:  token.AccessToken,
		Expiry: token.Expiry,
	}, nil
}
