package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/cli/config"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/secmon-lab/meetupboard/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var appCfg config.App
	var repoCfg config.Repository

	flags := appCfg.Flags()
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Write the matched users of the configuration file into the pairing store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if repoCfg.Backend() == config.BackendMemory {
				return goerr.New("seed requires a persistent repository backend", goerr.V(config.BackendKey, repoCfg.Backend()))
			}

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}
			users := app.SeedUsers()
			if len(users) == 0 {
				logging.Default().Info("No matched users in configuration, nothing to seed")
				return nil
			}

			repo, err := repoCfg.Configure(ctx, nil)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			if err := repo.MatchedUser().SaveMany(ctx, users); err != nil {
				return goerr.Wrap(err, "failed to seed matched users", goerr.V("count", len(users)))
			}

			logging.Default().Info("Seeded matched users",
				"backend", repoCfg.Backend(),
				"count", len(users))
			return nil
		},
	}
}
