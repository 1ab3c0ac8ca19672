package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/cli/config"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/usecase"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/secmon-lab/meetupboard/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdLeaders() *cli.Command {
	var userID string
	var appCfg config.App
	var repoCfg config.Repository
	var graphCfg config.Graph
	var leaderboardCfg config.Leaderboard

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Compute the entry of a single matched user",
			Destination: &userID,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, graphCfg.Flags()...)
	flags = append(flags, leaderboardCfg.Flags()...)

	return &cli.Command{
		Name:    "leaders",
		Aliases: []string{"l"},
		Usage:   "Compute the leaderboard once and print it as JSON",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			repo, err := repoCfg.Configure(ctx, app.SeedUsers())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			clients, err := graphCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure graph")
			}

			ucOpts, err := leaderboardCfg.Configure(app)
			if err != nil {
				return err
			}
			uc := usecase.New(repo, clients.Service, ucOpts...)

			var result any
			if userID != "" {
				entry, err := uc.Leaderboard.LeaderboardEntry(ctx, model.UserID(userID))
				if err != nil {
					return err
				}
				result = entry
			} else {
				entries, err := uc.Leaderboard.Leaderboard(ctx)
				if err != nil {
					return err
				}
				result = entries
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal leaderboard")
			}

			logging.Default().Debug("Leaderboard computed", "bytes", len(data))
			safe.Write(ctx, os.Stdout, append(data, '\n'))
			return nil
		},
	}
}
