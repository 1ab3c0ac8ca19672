package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/cli/config"
	"github.com/secmon-lab/meetupboard/pkg/usecase"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/secmon-lab/meetupboard/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.App
	var repoCfg config.Repository
	var checkRepository bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-repository",
		Usage:       "Also check that every matched user in the pairing store can be ranked",
		Destination: &checkRepository,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally the pairing store",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate configuration file
			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"confirmation_phrase", usecase.ConfirmationPhrase(app.ConfirmationTemplate, app.BotDisplayName),
				"matched_user_count", len(app.MatchedUsers),
			)

			// Step 2: Check records of the pairing store
			if !checkRepository {
				return nil
			}

			repo, err := repoCfg.Configure(ctx, app.SeedUsers())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			users, err := repo.MatchedUser().GetAll(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to read matched users")
			}

			var issues int
			for _, user := range users {
				if err := user.Validate(); err != nil {
					issues++
					logger.Warn("Matched user cannot be ranked",
						"user_id", user.UserID,
						"error", err.Error(),
					)
				}
			}
			if issues > 0 {
				return fmt.Errorf("pairing store check found %d issue(s)", issues)
			}

			logger.Info("Pairing store check passed", "matched_user_count", len(users))
			return nil
		},
	}
}
