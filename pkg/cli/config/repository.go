package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/repository/couchdb"
	"github.com/secmon-lab/meetupboard/pkg/repository/firestore"
	"github.com/secmon-lab/meetupboard/pkg/repository/memory"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendCouchDB   = "couchdb"
)

// Repository holds CLI flags for the pairing store backend
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	pairingTenantID  string
	couchURL         string
	couchDatabase    string
	couchUsername    string
	couchPassword    string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Pairing store backend (memory, firestore or couchdb)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("MEETUPBOARD_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "pairing-tenant-id",
			Usage:       "Only read matched users of this tenant",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_PAIRING_TENANT_ID"),
			Destination: &r.pairingTenantID,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix prepended to Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "couchdb-url",
			Usage:       "CouchDB server URL (required when using couchdb backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_COUCHDB_URL"),
			Destination: &r.couchURL,
		},
		&cli.StringFlag{
			Name:        "couchdb-database",
			Usage:       "CouchDB database name",
			Category:    "Repository",
			Value:       "meetupboard",
			Sources:     cli.EnvVars("MEETUPBOARD_COUCHDB_DATABASE"),
			Destination: &r.couchDatabase,
		},
		&cli.StringFlag{
			Name:        "couchdb-username",
			Usage:       "CouchDB username",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_COUCHDB_USERNAME"),
			Destination: &r.couchUsername,
		},
		&cli.StringFlag{
			Name:        "couchdb-password",
			Usage:       "CouchDB password",
			Category:    "Repository",
			Sources:     cli.EnvVars("MEETUPBOARD_COUCHDB_PASSWORD"),
			Destination: &r.couchPassword,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("pairing-tenant-id", r.pairingTenantID),
		slog.String("firestore-project-id", r.projectID),
		slog.String("firestore-database-id", r.databaseID),
		slog.String("couchdb-url", r.couchURL),
		slog.Int("couchdb-password.len", len(r.couchPassword)),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured
// backend. The memory backend is filled with seed. The caller is responsible
// for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context, seed []*model.MatchedUser) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingBackendOption, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID,
			firestore.WithCollectionPrefix(r.collectionPrefix),
			firestore.WithTenantFilter(r.pairingTenantID),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendCouchDB:
		if r.couchURL == "" {
			return nil, goerr.Wrap(ErrMissingBackendOption, "couchdb-url is required when using couchdb backend")
		}
		opts := []couchdb.Option{
			couchdb.WithTenantFilter(r.pairingTenantID),
		}
		if r.couchUsername != "" {
			opts = append(opts, couchdb.WithBasicAuth(r.couchUsername, r.couchPassword))
		}
		repo, err := couchdb.New(ctx, r.couchURL, r.couchDatabase, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize couchdb repository")
		}
		logging.Default().Info("Using CouchDB repository",
			"url", r.couchURL,
			"database", r.couchDatabase,
		)
		return repo, nil

	case BackendMemory:
		repo := memory.New()
		users := filterTenant(seed, r.pairingTenantID)
		if err := repo.MatchedUser().SaveMany(ctx, users); err != nil {
			return nil, goerr.Wrap(err, "failed to seed in-memory repository")
		}
		logging.Default().Info("Using in-memory repository (development mode)", "matched_users", len(users))
		return repo, nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "failed to configure repository", goerr.V(BackendKey, r.backend))
	}
}

func filterTenant(users []*model.MatchedUser, tenantID string) []*model.MatchedUser {
	if tenantID == "" {
		return users
	}
	filtered := make([]*model.MatchedUser, 0, len(users))
	for _, u := range users {
		if u.TenantID == tenantID {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
