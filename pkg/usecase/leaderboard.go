package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/domain/types"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
	"github.com/secmon-lab/meetupboard/pkg/service/graph"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBotDisplayName       = "Icebreaker"
	DefaultConfirmationTemplate = "You have been matched by {botDisplayName}"

	botDisplayNamePlaceholder = "{botDisplayName}"
)

type LeaderboardUseCase struct {
	repo        interfaces.Repository
	graph       graph.Service
	botName     string
	template    string
	concurrency int
	policy      types.FailurePolicy
}

type Option func(*LeaderboardUseCase)

func WithBotDisplayName(name string) Option {
	return func(uc *LeaderboardUseCase) {
		if name != "" {
			uc.botName = name
		}
	}
}

// WithConfirmationTemplate sets the text a message preview must contain.
// "{botDisplayName}" in template is replaced by the bot display name.
func WithConfirmationTemplate(template string) Option {
	return func(uc *LeaderboardUseCase) {
		if template != "" {
			uc.template = template
		}
	}
}

// WithEnrichConcurrency bounds how many matched users are enriched at once.
// Values below 1 are treated as 1.
func WithEnrichConcurrency(n int) Option {
	return func(uc *LeaderboardUseCase) {
		if n < 1 {
			n = 1
		}
		uc.concurrency = n
	}
}

func WithFailurePolicy(policy types.FailurePolicy) Option {
	return func(uc *LeaderboardUseCase) {
		if policy.IsValid() {
			uc.policy = policy
		}
	}
}

func NewLeaderboardUseCase(repo interfaces.Repository, graphService graph.Service, opts ...Option) *LeaderboardUseCase {
	uc := &LeaderboardUseCase{
		repo:        repo,
		graph:       graphService,
		botName:     DefaultBotDisplayName,
		template:    DefaultConfirmationTemplate,
		concurrency: 1,
		policy:      types.FailurePolicyFailFast,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ConfirmationPhrase returns the text that marks a message as a meetup
// confirmation. Empty arguments fall back to the defaults.
func ConfirmationPhrase(template, botDisplayName string) string {
	if template == "" {
		template = DefaultConfirmationTemplate
	}
	if botDisplayName == "" {
		botDisplayName = DefaultBotDisplayName
	}
	return strings.ReplaceAll(template, botDisplayNamePlaceholder, botDisplayName)
}

func (uc *LeaderboardUseCase) ConfirmationPhrase() string {
	return ConfirmationPhrase(uc.template, uc.botName)
}

// Leaderboard enriches every matched user with meetup count and display
// information and ranks them by count, highest first. Users with equal counts
// keep the order returned by the repository.
func (uc *LeaderboardUseCase) Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	started := time.Now()
	runID := uuid.Must(uuid.NewV7()).String()
	logger := logging.From(ctx).With(RunIDKey, runID)
	ctx = logging.With(ctx, logger)

	entries, err := uc.compute(ctx)
	metrics.LeaderboardLatency.Observe(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.LeaderboardComputationsTotal.WithLabelValues("failure").Inc()
		return nil, goerr.Wrap(err, "failed to compute leaderboard", goerr.V(RunIDKey, runID))
	}
	metrics.LeaderboardComputationsTotal.WithLabelValues("success").Inc()

	logger.Info("leaderboard computed",
		"entries", len(entries),
		"duration", time.Since(started),
	)
	return entries, nil
}

func (uc *LeaderboardUseCase) compute(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	users, err := uc.repo.MatchedUser().GetAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get matched users")
	}
	if len(users) == 0 {
		return []*model.LeaderboardEntry{}, nil
	}

	logging.From(ctx).Debug("enriching matched users",
		"matched_users", len(users),
		"concurrency", uc.concurrency,
		"policy", uc.policy,
	)

	phrase := uc.ConfirmationPhrase()
	results := make([]*model.LeaderboardEntry, len(users))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)
	for i, user := range users {
		eg.Go(func() error {
			entry, err := uc.enrich(egCtx, user, phrase)
			if err == nil {
				results[i] = entry
				return nil
			}
			if uc.policy == types.FailurePolicySkip && ctx.Err() == nil {
				metrics.LeaderboardSkippedUsersTotal.Inc()
				logging.From(ctx).Warn("skipping matched user",
					UserIDKey, user.UserID,
					AadObjectIDKey, user.UserAadObjectID,
					"error", err,
				)
				return nil
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	sortByMeetupCount(entries)

	return entries, nil
}

// LeaderboardEntry computes the entry of a single matched user
func (uc *LeaderboardUseCase) LeaderboardEntry(ctx context.Context, userID model.UserID) (*model.LeaderboardEntry, error) {
	user, err := uc.repo.MatchedUser().GetByID(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get matched user", goerr.V(UserIDKey, userID))
	}

	return uc.enrich(ctx, user, uc.ConfirmationPhrase())
}

func (uc *LeaderboardUseCase) enrich(ctx context.Context, user *model.MatchedUser, phrase string) (*model.LeaderboardEntry, error) {
	if user.UserAadObjectID == "" {
		return nil, goerr.Wrap(model.ErrMissingAadObjectID, "matched user has no directory object ID",
			goerr.V(UserIDKey, user.UserID))
	}

	entry := model.NewLeaderboardEntry(user)

	messages, err := uc.graph.GetMessages(ctx, user.UserAadObjectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get messages",
			goerr.V(UserIDKey, user.UserID),
			goerr.V(AadObjectIDKey, user.UserAadObjectID))
	}
	entry.MeetupCount = model.CountMeetupConfirmations(messages, phrase)

	profile, err := uc.graph.GetProfile(ctx, user.UserAadObjectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile",
			goerr.V(UserIDKey, user.UserID),
			goerr.V(AadObjectIDKey, user.UserAadObjectID))
	}
	entry.DisplayName = profile.DisplayName
	entry.DisplayAvatarURI = uc.graph.DisplayAvatar(ctx, profile)

	return entry, nil
}

func sortByMeetupCount(entries []*model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MeetupCount > entries[j].MeetupCount
	})
}
