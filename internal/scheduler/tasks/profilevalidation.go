package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/scheduler"
)

// ProfileValidationID is the id of the profile validation task.
const ProfileValidationID = "profile-validation"

// ProfileValidator revalidates every stored profile.
type ProfileValidator interface {
	ValidateAllProfiles(ctx context.Context) (map[string]metadata.Outcome, error)
}

// ProfileValidationTask repairs or deletes profiles that reference providers
// which are no longer registered.
type ProfileValidationTask struct {
	validator ProfileValidator
	logger    zerolog.Logger
}

// NewProfileValidationTask creates a new profile validation task.
func NewProfileValidationTask(v ProfileValidator, logger *zerolog.Logger) *ProfileValidationTask {
	return &ProfileValidationTask{
		validator: v,
		logger:    logger.With().Str("task", ProfileValidationID).Logger(),
	}
}

// Run validates all profiles and logs how many changed.
func (t *ProfileValidationTask) Run(ctx context.Context) error {
	outcomes, err := t.validator.ValidateAllProfiles(ctx)
	if err != nil {
		return err
	}

	counts := map[metadata.Outcome]int{}
	for _, outcome := range outcomes {
		counts[outcome]++
	}
	t.logger.Info().
		Int("checked", len(outcomes)).
		Int("updated", counts[metadata.OutcomeUpdated]).
		Int("deleted", counts[metadata.OutcomeDeleted]).
		Msg("Profile validation completed")
	return nil
}

// RegisterProfileValidationTask registers the profile validation task with the scheduler.
func RegisterProfileValidationTask(sched *scheduler.Scheduler, v ProfileValidator, cron string, runOnStart bool, logger *zerolog.Logger) error {
	task := NewProfileValidationTask(v, logger)
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ProfileValidationID,
		Name:        "Profile validation",
		Description: "Drops unregistered providers from profiles and deletes profiles whose search provider is gone",
		Cron:        cron,
		Func:        task.Run,
		RunOnStart:  runOnStart,
	})
}
