package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
	"github.com/secmon-lab/meetupboard/pkg/service/graph"
	"github.com/urfave/cli/v3"
)

const DefaultBotTokenRefreshInterval = 10 * time.Minute

// Graph holds CLI flags for Microsoft Graph access and the bot credential
type Graph struct {
	tenantID                string
	rootSiteURL             string
	appID                   string
	appSecret               string
	retryCount              int
	retryBaseDelay          time.Duration
	baseURL                 string
	authorityURL            string
	rateLimit               float64
	rateBurst               int
	timeout                 time.Duration
	photoSize               string
	botTokenRefreshInterval time.Duration
}

// GraphClients are the remote dependencies built from Graph
type GraphClients struct {
	Service graph.Service
	// Bot is the bot framework credential, pre-warmed before each computation
	Bot *credential.Cache
	// BotTokenRefreshInterval is zero when background refresh is disabled
	BotTokenRefreshInterval time.Duration
}

func (x *Graph) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tenant-id",
			Usage:       "Directory tenant. Derived from --root-site-url when omitted",
			Category:    "Graph",
			Sources:     cli.EnvVars("MEETUPBOARD_TENANT_ID"),
			Destination: &x.tenantID,
		},
		&cli.StringFlag{
			Name:        "root-site-url",
			Usage:       "SharePoint root site URL (e.g. https://contoso.sharepoint.com)",
			Category:    "Graph",
			Sources:     cli.EnvVars("MEETUPBOARD_ROOT_SITE_URL"),
			Destination: &x.rootSiteURL,
		},
		&cli.StringFlag{
			Name:        "app-id",
			Usage:       "Application (client) ID",
			Category:    "Graph",
			Sources:     cli.EnvVars("MEETUPBOARD_APP_ID"),
			Destination: &x.appID,
		},
		&cli.StringFlag{
			Name:        "app-secret",
			Usage:       "Application client secret",
			Category:    "Graph",
			Sources:     cli.EnvVars("MEETUPBOARD_APP_SECRET"),
			Destination: &x.appSecret,
		},
		&cli.IntFlag{
			Name:        "retry-count",
			Usage:       "Total attempts per Graph request",
			Category:    "Graph",
			Value:       graph.DefaultRetryCount,
			Sources:     cli.EnvVars("MEETUPBOARD_RETRY_COUNT"),
			Destination: &x.retryCount,
		},
		&cli.DurationFlag{
			Name:        "retry-base-delay",
			Usage:       "Delay before the first retry, doubled after each failure",
			Category:    "Graph",
			Value:       graph.DefaultRetryBaseDelay,
			Sources:     cli.EnvVars("MEETUPBOARD_RETRY_BASE_DELAY"),
			Destination: &x.retryBaseDelay,
		},
		&cli.StringFlag{
			Name:        "graph-base-url",
			Usage:       "Microsoft Graph host",
			Category:    "Graph",
			Value:       graph.DefaultBaseURL,
			Sources:     cli.EnvVars("MEETUPBOARD_GRAPH_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.StringFlag{
			Name:        "authority-url",
			Usage:       "OAuth authority host",
			Category:    "Graph",
			Value:       credential.DefaultAuthorityURL,
			Sources:     cli.EnvVars("MEETUPBOARD_AUTHORITY_URL"),
			Destination: &x.authorityURL,
		},
		&cli.FloatFlag{
			Name:        "graph-rate-limit",
			Usage:       "Graph requests per second",
			Category:    "Graph",
			Value:       graph.DefaultRequestsPerSecond,
			Sources:     cli.EnvVars("MEETUPBOARD_GRAPH_RATE_LIMIT"),
			Destination: &x.rateLimit,
		},
		&cli.IntFlag{
			Name:        "graph-rate-burst",
			Usage:       "Graph request burst size",
			Category:    "Graph",
			Value:       graph.DefaultBurstSize,
			Sources:     cli.EnvVars("MEETUPBOARD_GRAPH_RATE_BURST"),
			Destination: &x.rateBurst,
		},
		&cli.DurationFlag{
			Name:        "graph-timeout",
			Usage:       "Timeout of a single Graph request attempt",
			Category:    "Graph",
			Value:       graph.DefaultTimeout,
			Sources:     cli.EnvVars("MEETUPBOARD_GRAPH_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.StringFlag{
			Name:        "photo-size",
			Usage:       "Profile photo size requested from Graph",
			Category:    "Graph",
			Value:       graph.DefaultPhotoSize,
			Sources:     cli.EnvVars("MEETUPBOARD_PHOTO_SIZE"),
			Destination: &x.photoSize,
		},
		&cli.DurationFlag{
			Name:        "bot-token-refresh-interval",
			Usage:       "Interval of background bot token refresh (0 disables it)",
			Category:    "Graph",
			Value:       DefaultBotTokenRefreshInterval,
			Sources:     cli.EnvVars("MEETUPBOARD_BOT_TOKEN_REFRESH_INTERVAL"),
			Destination: &x.botTokenRefreshInterval,
		},
	}
}

func (x Graph) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tenant-id", x.tenantID),
		slog.String("root-site-url", x.rootSiteURL),
		slog.String("app-id", x.appID),
		slog.Int("app-secret.len", len(x.appSecret)),
		slog.Int("retry-count", x.retryCount),
		slog.Duration("retry-base-delay", x.retryBaseDelay),
		slog.String("graph-base-url", x.baseURL),
		slog.Float64("graph-rate-limit", x.rateLimit),
	)
}

// Configure builds the Graph service and the bot credential. Graph JSON
// requests, photo downloads and the bot principal each get their own token
// cache.
func (x *Graph) Configure() (*GraphClients, error) {
	if x.appID == "" {
		return nil, goerr.Wrap(ErrMissingAppID, "invalid graph configuration")
	}
	if x.appSecret == "" {
		return nil, goerr.Wrap(ErrMissingAppSecret, "invalid graph configuration")
	}

	tenant, err := credential.ResolveTenant(x.tenantID, x.rootSiteURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid graph configuration")
	}

	sourceOpts := []credential.SourceOption{
		credential.WithAuthorityURL(x.authorityURL),
	}

	graphSource, err := credential.NewClientCredentials(tenant, x.appID, x.appSecret, credential.GraphScope, sourceOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure graph credential")
	}
	photoSource, err := credential.NewClientCredentials(tenant, x.appID, x.appSecret, credential.GraphScope, sourceOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure photo credential")
	}
	botSource, err := credential.NewClientCredentials(credential.BotFrameworkTenant, x.appID, x.appSecret, credential.BotFrameworkScope, sourceOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure bot credential")
	}

	limiter := graph.NewRateLimiter(x.rateLimit, x.rateBurst)

	client, err := graph.NewClient(credential.NewCache("graph", graphSource),
		graph.WithBaseURL(x.baseURL),
		graph.WithRetry(x.retryCount, x.retryBaseDelay),
		graph.WithTimeout(x.timeout),
		graph.WithRateLimiter(limiter),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create graph client")
	}

	photos, err := graph.NewPhotoFetcher(credential.NewCache("photo", photoSource),
		graph.WithPhotoBaseURL(x.baseURL),
		graph.WithPhotoSize(x.photoSize),
		graph.WithPhotoRateLimiter(limiter),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create photo fetcher")
	}

	svc, err := graph.New(client, photos)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create graph service")
	}

	interval := x.botTokenRefreshInterval
	if interval < 0 {
		interval = 0
	}

	return &GraphClients{
		Service:                 svc,
		Bot:                     credential.NewCache("bot", botSource),
		BotTokenRefreshInterval: interval,
	}, nil
}
