package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/metadex/metadex/internal/metadata"
)

var (
	ErrDuplicateProfile      = errors.New("profile already exists")
	ErrInvalidProfile        = errors.New("invalid profile")
	ErrUnknownSearchProvider = errors.New("search provider not registered")
)

// Repository is a profile store that can also insert without overwriting.
type Repository interface {
	metadata.ProfileStore
	Insert(ctx context.Context, profile *metadata.Profile) (bool, error)
}

// ProviderChecker reports whether a provider id is registered.
type ProviderChecker interface {
	HasProvider(id string) bool
}

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Service manages profiles on behalf of the API and the startup seed.
type Service struct {
	repo        Repository
	providers   ProviderChecker
	validate    *validator.Validate
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, providers ProviderChecker, logger *zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "profiles").Logger(),
	}
}

// SetBroadcaster sets the WebSocket broadcaster for profile events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Get returns a profile by id.
func (s *Service) Get(ctx context.Context, id string) (*metadata.Profile, error) {
	return s.repo.Load(ctx, "", id)
}

// List returns the profiles of mt, or all profiles when mt is empty.
func (s *Service) List(ctx context.Context, mt metadata.MediaType) ([]*metadata.Profile, error) {
	if mt != "" && !mt.Valid() {
		return nil, fmt.Errorf("%w: %q", metadata.ErrInvalidMediaType, mt)
	}
	return s.repo.List(ctx, mt)
}

// Create validates and stores a new profile. An empty id gets a generated one.
func (s *Service) Create(ctx context.Context, input *metadata.Profile) (*metadata.Profile, error) {
	profile, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	inserted, err := s.repo.Insert(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, profile.ID)
	}

	s.logger.Info().Str("profileId", profile.ID).Str("mediaType", string(profile.MediaType)).Msg("Created profile")
	s.broadcast(metadata.EventProfileUpdated, profile)
	return profile, nil
}

// Update replaces an existing profile. The media type of a profile cannot change.
func (s *Service) Update(ctx context.Context, id string, input *metadata.Profile) (*metadata.Profile, error) {
	existing, err := s.repo.Load(ctx, "", id)
	if err != nil {
		return nil, err
	}

	profile, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	if profile.MediaType != existing.MediaType {
		return nil, fmt.Errorf("%w: cannot change media type from %s to %s", metadata.ErrProfileMediaType, existing.MediaType, profile.MediaType)
	}
	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info().Str("profileId", profile.ID).Msg("Updated profile")
	s.broadcast(metadata.EventProfileUpdated, profile)
	return profile, nil
}

// Delete removes a profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Load(ctx, "", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("profileId", id).Msg("Deleted profile")
	s.broadcast(metadata.EventProfileDeleted, map[string]interface{}{"id": id})
	return nil
}

// Seed inserts the given profiles unless a profile with the same id exists.
// Invalid profiles are logged and skipped. It returns the number inserted.
func (s *Service) Seed(ctx context.Context, seeds []*metadata.Profile) (int, error) {
	inserted := 0
	for _, seed := range seeds {
		profile, err := s.prepare(seed)
		if err != nil {
			s.logger.Warn().Err(err).Str("profileId", seed.ID).Msg("Skipping invalid seed profile")
			continue
		}
		ok, err := s.repo.Insert(ctx, profile)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
			s.logger.Debug().Str("profileId", profile.ID).Msg("Seeded profile")
		}
	}
	return inserted, nil
}

// prepare validates input and returns a normalized copy.
func (s *Service) prepare(input *metadata.Profile) (*metadata.Profile, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidProfile)
	}
	profile := input.Clone()
	profile.Name = strings.TrimSpace(profile.Name)
	profile.MediaType = metadata.MediaType(strings.ToLower(strings.TrimSpace(string(profile.MediaType))))
	profile.SearchProviderID = metadata.NormalizeProviderID(profile.SearchProviderID)
	if profile.DefaultLocale != "" {
		profile.DefaultLocale = metadata.NormalizeLocale(profile.DefaultLocale)
	}

	if err := s.validate.Struct(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	for slot, cfg := range profile.SlotConfigs {
		if !metadata.IsValidSlot(profile.MediaType, slot) {
			return nil, fmt.Errorf("%w: %q for %s", metadata.ErrInvalidSlot, slot, profile.MediaType)
		}
		if cfg.MergeStrategy != "" && !cfg.MergeStrategy.Valid() {
			return nil, fmt.Errorf("%w: unknown merge strategy %q in slot %s", ErrInvalidProfile, cfg.MergeStrategy, slot)
		}
	}
	if !s.providers.HasProvider(profile.SearchProviderID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSearchProvider, profile.SearchProviderID)
	}

	normalized, _ := metadata.NormalizeProfile(profile, s.providers.HasProvider)
	return normalized, nil
}

func (s *Service) broadcast(msgType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", msgType).Msg("Failed to broadcast event")
	}
}
