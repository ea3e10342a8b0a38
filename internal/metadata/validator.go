package metadata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Outcome is the result of validating one profile.
type Outcome string

const (
	OutcomeDeleted   Outcome = "deleted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// ProfileStore persists profiles.
type ProfileStore interface {
	// Load returns the profile with id. It fails with ErrProfileNotFound, or
	// ErrProfileMediaType when the stored profile belongs to another media type.
	Load(ctx context.Context, mt MediaType, id string) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, id string) error
	// List returns the profiles of mt, or every profile when mt is empty.
	List(ctx context.Context, mt MediaType) ([]*Profile, error)
}

// Validator keeps stored profiles consistent with the registered providers.
type Validator struct {
	registry *Registry
	store    ProfileStore
	logger   zerolog.Logger
}

// NewValidator creates a profile validator.
func NewValidator(registry *Registry, store ProfileStore, logger *zerolog.Logger) *Validator {
	return &Validator{
		registry: registry,
		store:    store,
		logger:   logger.With().Str("component", "validator").Logger(),
	}
}

// Validate repairs the profile in the store. A profile whose search provider
// is gone is deleted. Otherwise the normalized profile is returned, and saved
// when it differs from the stored one.
func (v *Validator) Validate(ctx context.Context, profile *Profile) (Outcome, *Profile, error) {
	if !v.registry.Has(profile.SearchProviderID) {
		if err := v.store.Delete(ctx, profile.ID); err != nil {
			return "", nil, fmt.Errorf("failed to delete profile %s: %w", profile.ID, err)
		}
		v.logger.Info().Str("profileId", profile.ID).Str("searchProviderId", profile.SearchProviderID).
			Msg("Deleted profile whose search provider is no longer registered")
		return OutcomeDeleted, nil, nil
	}

	normalized, changed := NormalizeProfile(profile, v.registry.Has)
	if !changed {
		return OutcomeUnchanged, normalized, nil
	}
	if err := v.store.Save(ctx, normalized); err != nil {
		return "", nil, fmt.Errorf("failed to save profile %s: %w", profile.ID, err)
	}
	v.logger.Info().Str("profileId", profile.ID).Msg("Updated profile to match registered providers")
	return OutcomeUpdated, normalized, nil
}

// ValidateAll validates every stored profile. A failure on one profile is
// logged and does not stop the sweep.
func (v *Validator) ValidateAll(ctx context.Context) (map[string]Outcome, error) {
	profiles, err := v.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	outcomes := make(map[string]Outcome, len(profiles))
	for _, p := range profiles {
		outcome, _, err := v.Validate(ctx, p)
		if err != nil {
			v.logger.Error().Err(err).Str("profileId", p.ID).Msg("Profile validation failed")
			continue
		}
		outcomes[p.ID] = outcome
	}
	return outcomes, nil
}

// NormalizeProfile returns a copy of profile holding exactly the valid slots of
// its media type. Missing slots get the default config, unknown strategies the
// slot default, and entries of unregistered or repeated providers are dropped.
// changed reports whether the copy differs from the input.
func NormalizeProfile(profile *Profile, registered func(providerID string) bool) (*Profile, bool) {
	out := profile.Clone()
	changed := false

	for slot := range out.SlotConfigs {
		if !IsValidSlot(out.MediaType, slot) {
			delete(out.SlotConfigs, slot)
			changed = true
		}
	}

	for _, slot := range SlotsFor(out.MediaType) {
		cfg, ok := out.SlotConfigs[slot]
		if !ok {
			out.SlotConfigs[slot] = DefaultSlotConfig(slot)
			changed = true
			continue
		}
		if !cfg.MergeStrategy.Valid() {
			cfg.MergeStrategy = DefaultSlotConfig(slot).MergeStrategy
			changed = true
		}

		seen := make(map[string]bool, len(cfg.Providers))
		kept := make([]SlotProviderEntry, 0, len(cfg.Providers))
		for _, entry := range cfg.Providers {
			id := NormalizeProviderID(entry.ProviderID)
			if seen[id] || !registered(id) {
				changed = true
				continue
			}
			seen[id] = true
			kept = append(kept, entry)
		}
		cfg.Providers = kept
		out.SlotConfigs[slot] = cfg
	}

	return out, changed
}
