package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/cli/config"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/domain/types"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		check   func(t *testing.T, cfg *config.AppConfig)
	}{
		{
			name: "valid configuration",
			content: `
bot_display_name = "Matchmaker"
confirmation_template = "{botDisplayName} paired you"

[[matched_user]]
user_id = "29:abc"
tenant_id = "t1"
user_aad_object_id = "aad-1"
user_principal_name = "ada@contoso.com"
role = "member"

[[matched_user]]
user_id = "29:def"
tenant_id = "t2"
user_aad_object_id = "aad-2"
`,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.BotDisplayName).Equal("Matchmaker")
				gt.Value(t, cfg.ConfirmationTemplate).Equal("{botDisplayName} paired you")
				gt.Array(t, cfg.MatchedUsers).Length(2).Required()
				gt.Value(t, cfg.MatchedUsers[0].UserID).Equal(model.UserID("29:abc"))
				gt.Value(t, cfg.MatchedUsers[0].UserPrincipalName).Equal("ada@contoso.com")

				seed := cfg.SeedUsers()
				gt.Array(t, seed).Length(2).Required()
				gt.Value(t, seed[1].UserAadObjectID).Equal("aad-2")
			},
		},
		{
			name:    "empty file",
			content: ``,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.BotDisplayName).Equal("")
				gt.Array(t, cfg.MatchedUsers).Length(0)
			},
		},
		{
			name: "duplicate user ID",
			content: `
[[matched_user]]
user_id = "u1"
user_aad_object_id = "aad-1"

[[matched_user]]
user_id = "u1"
user_aad_object_id = "aad-2"
`,
			wantErr: config.ErrDuplicateUserID,
		},
		{
			name: "missing directory object ID",
			content: `
[[matched_user]]
user_id = "u1"
`,
			wantErr: model.ErrMissingAadObjectID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			tt.check(t, cfg)
		})
	}
}

func TestLoadAppConfigurationMissingFile(t *testing.T) {
	_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err)
}

func TestAppFlagOverridesFile(t *testing.T) {
	path := writeConfig(t, `bot_display_name = "FromFile"`)

	var app config.App
	cmd := &cli.Command{
		Name:  "test",
		Flags: app.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := app.Configure()
			gt.NoError(t, err).Required()
			gt.Value(t, cfg.BotDisplayName).Equal("FromFlag")
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), []string{"test", "--config", path, "--bot-display-name", "FromFlag"}))
}

func TestGraphConfigure(t *testing.T) {
	t.Run("tenant derived from root site URL", func(t *testing.T) {
		clients, err := config.NewGraphForTest("", "https://Contoso.SharePoint.com/sites/x", "app", "secret", 5*time.Minute).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, clients.Service).NotNil()
		gt.Value(t, clients.Bot).NotNil()
		gt.Value(t, clients.BotTokenRefreshInterval).Equal(5 * time.Minute)
	})

	t.Run("missing tenant", func(t *testing.T) {
		_, err := config.NewGraphForTest("", "", "app", "secret", 0).Configure()
		gt.Error(t, err).Is(credential.ErrMissingTenant)
	})

	t.Run("missing app ID", func(t *testing.T) {
		_, err := config.NewGraphForTest("t1", "", "", "secret", 0).Configure()
		gt.Error(t, err).Is(config.ErrMissingAppID)
	})

	t.Run("missing app secret", func(t *testing.T) {
		_, err := config.NewGraphForTest("t1", "", "app", "", 0).Configure()
		gt.Error(t, err).Is(config.ErrMissingAppSecret)
	})
}

func TestGraphFlagDefaults(t *testing.T) {
	var g config.Graph
	cmd := &cli.Command{
		Name:  "test",
		Flags: g.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			gt.Number(t, c.Int("retry-count")).Equal(3)
			gt.Value(t, c.Duration("retry-base-delay")).Equal(500 * time.Millisecond)
			gt.Value(t, c.String("graph-base-url")).Equal("https://graph.microsoft.com")
			gt.Value(t, c.String("authority-url")).Equal("https://login.microsoftonline.com")
			gt.Value(t, c.Duration("bot-token-refresh-interval")).Equal(10 * time.Minute)
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), []string{"test"}))
}

func TestRepositoryConfigureMemory(t *testing.T) {
	seed := []*model.MatchedUser{
		{UserID: "u1", TenantID: "t1", UserAadObjectID: "aad-1"},
		{UserID: "u2", TenantID: "t2", UserAadObjectID: "aad-2"},
	}

	t.Run("all tenants", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "").Configure(context.Background(), seed)
		gt.NoError(t, err).Required()
		users, err := repo.MatchedUser().GetAll(context.Background())
		gt.NoError(t, err)
		gt.Array(t, users).Length(2)
	})

	t.Run("pairing tenant filter", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "t2").Configure(context.Background(), seed)
		gt.NoError(t, err).Required()
		users, err := repo.MatchedUser().GetAll(context.Background())
		gt.NoError(t, err)
		gt.Array(t, users).Length(1).Required()
		gt.Value(t, users[0].UserID).Equal(model.UserID("u2"))
	})
}

func TestRepositoryConfigureErrors(t *testing.T) {
	_, err := config.NewRepositoryForTest("mysql", "").Configure(context.Background(), nil)
	gt.Error(t, err).Is(config.ErrInvalidBackend)

	_, err = config.NewRepositoryForTest(config.BackendFirestore, "").Configure(context.Background(), nil)
	gt.Error(t, err).Is(config.ErrMissingBackendOption)

	_, err = config.NewRepositoryForTest(config.BackendCouchDB, "").Configure(context.Background(), nil)
	gt.Error(t, err).Is(config.ErrMissingBackendOption)
}

func TestLeaderboardConfigure(t *testing.T) {
	opts, err := config.NewLeaderboardForTest(4, "skip").Configure(&config.AppConfig{BotDisplayName: "Matchmaker"})
	gt.NoError(t, err)
	gt.Array(t, opts).Length(4)

	_, err = config.NewLeaderboardForTest(1, "retry-forever").Configure(nil)
	gt.Error(t, err).Is(types.ErrInvalidFailurePolicy)
}

func TestLoggerConfigure(t *testing.T) {
	_, err := config.NewLoggerForTest("verbose", "console", "stderr").Configure()
	gt.Error(t, err).Is(config.ErrInvalidLogLevel)

	_, err = config.NewLoggerForTest("info", "xml", "stderr").Configure()
	gt.Error(t, err).Is(config.ErrInvalidLogFormat)

	path := filepath.Join(t.TempDir(), "app.log")
	closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
	gt.NoError(t, err).Required()
	closer()

	_, err = os.Stat(path)
	gt.NoError(t, err)
}
