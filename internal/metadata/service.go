package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event types broadcast by the service.
const (
	EventProviderRegistered   = "provider:registered"
	EventProviderUnregistered = "provider:unregistered"
	EventProfileUpdated       = "profile:updated"
	EventProfileDeleted       = "profile:deleted"
)

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// LocaleSource supplies the fallback locale when neither the lookup nor the profile sets one.
type LocaleSource interface {
	DefaultLocale(ctx context.Context) string
}

// StaticLocale is a LocaleSource returning a fixed locale.
type StaticLocale string

func (l StaticLocale) DefaultLocale(context.Context) string { return string(l) }

// GetOptions tunes a GetMetadata call.
type GetOptions struct {
	// SkipValidation skips the profile validation pass when the caller knows the profile is fresh.
	SkipValidation bool
}

// Service aggregates metadata from the registered providers according to stored profiles.
type Service struct {
	registry  *Registry
	store     ProfileStore
	locales   LocaleSource
	resolver  *Resolver
	fetcher   *Fetcher
	validator *Validator
	obs       *observer
	logger    zerolog.Logger
}

// NewService creates a new metadata aggregation service.
func NewService(store ProfileStore, locales LocaleSource, logger *zerolog.Logger) *Service {
	registry := NewRegistry()
	obs := &observer{}
	if locales == nil {
		locales = StaticLocale("")
	}
	return &Service{
		registry:  registry,
		store:     store,
		locales:   locales,
		resolver:  newResolver(registry, obs, logger),
		fetcher:   newFetcher(registry, obs, logger),
		validator: NewValidator(registry, store, logger),
		obs:       obs,
		logger:    logger.With().Str("component", "metadata").Logger(),
	}
}

// SetHealthService sets the central health service for provider status tracking.
func (s *Service) SetHealthService(hs HealthService) {
	s.obs.setHealth(hs)
}

// SetMetrics sets the recorder for provider call and aggregation metrics.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.obs.setMetrics(m)
}

// SetBroadcaster sets the WebSocket broadcaster for provider and profile events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.obs.setBroadcaster(b)
}

// Providers lists the registered providers.
func (s *Service) Providers() []ProviderInfo {
	return s.registry.List()
}

// HasProvider reports whether a provider id is registered.
func (s *Service) HasProvider(id string) bool {
	return s.registry.Has(id)
}

// RegisterProvider validates and registers a provider.
func (s *Service) RegisterProvider(p Provider) error {
	if err := s.registry.Register(p); err != nil {
		return err
	}
	id := NormalizeProviderID(p.ID())

	if health, _ := s.obs.sinks(); health != nil {
		health.RegisterItemStr(HealthCategory, id, p.Name())
	}
	s.logger.Info().Str("providerId", id).Msg("Registered metadata provider")
	s.broadcast(EventProviderRegistered, map[string]interface{}{"id": id, "name": p.Name()})
	return nil
}

// UnregisterProvider removes a provider and validates every stored profile
// against the remaining providers.
func (s *Service) UnregisterProvider(ctx context.Context, providerID string) (map[string]Outcome, error) {
	id := NormalizeProviderID(providerID)
	if !s.registry.Unregister(id) {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerID)
	}

	if health, _ := s.obs.sinks(); health != nil {
		health.UnregisterItemStr(HealthCategory, id)
	}
	s.logger.Info().Str("providerId", id).Msg("Unregistered metadata provider")
	s.broadcast(EventProviderUnregistered, map[string]interface{}{"id": id})

	return s.ValidateAllProfiles(ctx)
}

// ValidateAllProfiles validates every stored profile and reports the outcome per profile id.
func (s *Service) ValidateAllProfiles(ctx context.Context) (map[string]Outcome, error) {
	outcomes, err := s.validator.ValidateAll(ctx)
	if err != nil {
		return nil, err
	}
	for profileID, outcome := range outcomes {
		s.announce(profileID, outcome)
	}
	return outcomes, nil
}

// Search queries the search provider of the profile. A failing provider is
// logged and yields no results.
func (s *Service) Search(ctx context.Context, mt MediaType, profileID, query string) ([]SearchResult, error) {
	profile, err := s.profile(ctx, mt, profileID, false)
	if err != nil {
		return nil, err
	}

	id := NormalizeProviderID(profile.SearchProviderID)
	rp, ok := s.registry.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, id)
	}
	if !rp.caps.has(mt, SlotSearch) {
		return nil, fmt.Errorf("%w: %q", ErrSearchUnsupported, id)
	}

	results, err := s.resolver.search(ctx, rp, id, mt, query, s.locale(ctx, "", profile))
	if err != nil {
		s.logger.Warn().Err(err).Str("providerId", id).Str("query", query).Msg("Provider search failed")
		return []SearchResult{}, nil
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// GetMetadata aggregates the record of the entity described by lookup. A nil
// record with a nil error means the entity could not be identified.
func (s *Service) GetMetadata(ctx context.Context, mt MediaType, profileID string, lookup Lookup, opts GetOptions) (*Record, error) {
	start := time.Now()

	profile, err := s.profile(ctx, mt, profileID, opts.SkipValidation)
	if err != nil {
		s.obs.aggregation(mt, "error", time.Since(start))
		return nil, err
	}
	locale := s.locale(ctx, lookup.Locale, profile)

	resolved, err := s.resolver.ResolveAll(ctx, profile, lookup, locale)
	if err != nil {
		s.obs.aggregation(mt, "error", time.Since(start))
		return nil, err
	}

	results := s.fetcher.Fetch(ctx, profile, resolved, locale)
	record := Merge(mt, profile, results)

	logEvent := s.logger.Debug().
		Str("profileId", profile.ID).
		Str("mediaType", string(mt)).
		Str("query", lookup.Name).
		Int("resolved", len(resolved)).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start))
	if record == nil {
		s.obs.aggregation(mt, "empty", time.Since(start))
		logEvent.Msg("Aggregation produced no named record")
		return nil, nil
	}
	s.obs.aggregation(mt, "ok", time.Since(start))
	logEvent.Msg("Aggregated metadata")
	return record, nil
}

// GetProviderImages resolves one provider and returns its raw image list for slot, without merging.
// Provider failures are logged and yield an empty list.
func (s *Service) GetProviderImages(ctx context.Context, mt MediaType, providerID string, lookup Lookup, slot Slot) ([]string, error) {
	if !mt.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mt)
	}
	if !slot.IsImage() || !IsValidSlot(mt, slot) {
		return nil, fmt.Errorf("%w: %q is not an image slot of %s", ErrInvalidSlot, slot, mt)
	}
	id := NormalizeProviderID(providerID)
	if !s.registry.Has(id) {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerID)
	}
	if !s.registry.Supports(id, mt, slot) {
		return nil, fmt.Errorf("%w: %s does not provide %s for %s", ErrSlotUnsupported, id, slot, mt)
	}

	locale := s.locale(ctx, lookup.Locale, nil)
	res, err := s.resolver.Resolve(ctx, mt, id, lookup.Name, lookup.KnownIDs, locale)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return []string{}, nil
	}

	result, err := s.fetcher.run(ctx, mt, fetchTask{slot: slot, providerID: id, id: res.ID}, locale)
	if err != nil {
		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("providerId", id).Str("slot", string(slot)).Msg("Provider image fetch failed")
		return []string{}, nil
	}
	return compactURLs(result.Images), nil
}

// profile loads a profile and, unless skipped, validates it first.
func (s *Service) profile(ctx context.Context, mt MediaType, profileID string, skipValidation bool) (*Profile, error) {
	if !mt.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mt)
	}
	profile, err := s.store.Load(ctx, mt, profileID)
	if err != nil {
		return nil, err
	}
	if skipValidation {
		return profile, nil
	}

	outcome, normalized, err := s.validator.Validate(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.announce(profile.ID, outcome)
	if outcome == OutcomeDeleted {
		return nil, fmt.Errorf("%w: %s", ErrProfileDeleted, profile.ID)
	}
	return normalized, nil
}

// locale returns the effective locale: the lookup's, then the profile's, then the configured default.
func (s *Service) locale(ctx context.Context, requested string, profile *Profile) string {
	candidates := []string{requested}
	if profile != nil {
		candidates = append(candidates, profile.DefaultLocale)
	}
	candidates = append(candidates, s.locales.DefaultLocale(ctx))

	for _, c := range candidates {
		if normalized := NormalizeLocale(c); normalized != "" {
			return normalized
		}
		if strings.TrimSpace(c) != "" {
			s.logger.Debug().Str("locale", c).Msg("Ignoring unparseable locale")
		}
	}
	return ""
}

func (s *Service) announce(profileID string, outcome Outcome) {
	switch outcome {
	case OutcomeUpdated:
		s.broadcast(EventProfileUpdated, map[string]interface{}{"id": profileID})
	case OutcomeDeleted:
		s.broadcast(EventProfileDeleted, map[string]interface{}{"id": profileID})
	}
}

func (s *Service) broadcast(msgType string, payload interface{}) {
	b := s.obs.events()
	if b == nil {
		return
	}
	if err := b.Broadcast(msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", msgType).Msg("Failed to broadcast event")
	}
}

// IsNotFound reports whether err means a profile or provider does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrProviderNotRegistered)
}
