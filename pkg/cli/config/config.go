package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	BotDisplayName       string              `toml:"bot_display_name"`
	ConfirmationTemplate string              `toml:"confirmation_template"`
	MatchedUsers         []model.MatchedUser `toml:"matched_user"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	userIDs := make(map[model.UserID]bool)
	for i, user := range a.MatchedUsers {
		if err := user.Validate(); err != nil {
			return goerr.Wrap(err, "invalid matched user", goerr.V(UserIndexKey, i))
		}
		if userIDs[user.UserID] {
			return goerr.Wrap(ErrDuplicateUserID, "invalid matched user",
				goerr.V(UserIDKey, user.UserID),
				goerr.V(UserIndexKey, i))
		}
		userIDs[user.UserID] = true
	}
	return nil
}

// SeedUsers returns the matched users declared in the file
func (a *AppConfig) SeedUsers() []*model.MatchedUser {
	users := make([]*model.MatchedUser, len(a.MatchedUsers))
	for i := range a.MatchedUsers {
		user := a.MatchedUsers[i]
		users[i] = &user
	}
	return users
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App holds CLI flags for the application configuration file
type App struct {
	path           string
	botDisplayName string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("MEETUPBOARD_CONFIG"),
			Destination: &x.path,
		},
		&cli.StringFlag{
			Name:        "bot-display-name",
			Usage:       "Display name of the matching bot, used to recognize confirmation messages (default: Icebreaker)",
			Sources:     cli.EnvVars("MEETUPBOARD_BOT_DISPLAY_NAME"),
			Destination: &x.botDisplayName,
		},
	}
}

// Configure loads the configuration file when one is given. The
// --bot-display-name flag takes precedence over the file.
func (x *App) Configure() (*AppConfig, error) {
	cfg := &AppConfig{}
	if x.path != "" {
		loaded, err := LoadAppConfiguration(x.path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if x.botDisplayName != "" {
		cfg.BotDisplayName = x.botDisplayName
	}

	return cfg, nil
}
