package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/types"
	"github.com/secmon-lab/meetupboard/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Leaderboard holds CLI flags tuning the leaderboard computation
type Leaderboard struct {
	concurrency   int
	failurePolicy string
}

func (x *Leaderboard) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "enrich-concurrency",
			Usage:       "Number of matched users enriched in parallel",
			Category:    "Leaderboard",
			Value:       1,
			Sources:     cli.EnvVars("MEETUPBOARD_ENRICH_CONCURRENCY"),
			Destination: &x.concurrency,
		},
		&cli.StringFlag{
			Name:        "failure-policy",
			Usage:       "What to do when one matched user cannot be enriched (fail-fast or skip)",
			Category:    "Leaderboard",
			Value:       string(types.FailurePolicyFailFast),
			Sources:     cli.EnvVars("MEETUPBOARD_FAILURE_POLICY"),
			Destination: &x.failurePolicy,
		},
	}
}

func (x Leaderboard) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("concurrency", x.concurrency),
		slog.String("failure-policy", x.failurePolicy),
	)
}

// Configure builds use case options from the flags and the application file
func (x *Leaderboard) Configure(app *AppConfig) ([]usecase.Option, error) {
	policy, err := types.ParseFailurePolicy(x.failurePolicy)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid leaderboard configuration")
	}

	opts := []usecase.Option{
		usecase.WithEnrichConcurrency(x.concurrency),
		usecase.WithFailurePolicy(policy),
	}
	if app != nil {
		opts = append(opts,
			usecase.WithBotDisplayName(app.BotDisplayName),
			usecase.WithConfirmationTemplate(app.ConfirmationTemplate),
		)
	}
	return opts, nil
}
