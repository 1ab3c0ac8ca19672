package config

import "time"

// NewGraphForTest creates a Graph config for testing purposes
func NewGraphForTest(tenantID, rootSiteURL, appID, appSecret string, botRefresh time.Duration) *Graph {
	return &Graph{
		tenantID:                tenantID,
		rootSiteURL:             rootSiteURL,
		appID:                   appID,
		appSecret:               appSecret,
		botTokenRefreshInterval: botRefresh,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, pairingTenantID string) *Repository {
	return &Repository{
		backend:         backend,
		pairingTenantID: pairingTenantID,
	}
}

// NewLeaderboardForTest creates a Leaderboard config for testing purposes
func NewLeaderboardForTest(concurrency int, failurePolicy string) *Leaderboard {
	return &Leaderboard{
		concurrency:   concurrency,
		failurePolicy: failurePolicy,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
