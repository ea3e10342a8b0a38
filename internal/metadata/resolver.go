package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Resolution is a provider-specific identifier found for a lookup.
type Resolution struct {
	ProviderID   string
	ID           string
	OriginalName string
}

// Resolver turns lookups into provider-specific identifiers.
type Resolver struct {
	registry *Registry
	obs      *observer
	logger   zerolog.Logger
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry *Registry, logger *zerolog.Logger) *Resolver {
	return newResolver(registry, &observer{}, logger)
}

func newResolver(registry *Registry, obs *observer, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		obs:      obs,
		logger:   logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve finds the id of the entity in providerID's namespace. A known id
// from that namespace is returned without searching. A nil resolution means
// the provider contributes nothing; only an unregistered provider is an error.
func (r *Resolver) Resolve(ctx context.Context, mt MediaType, providerID, name string, knownIDs []ExternalID, locale string) (*Resolution, error) {
	rp, ok := r.registry.get(providerID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerID)
	}
	id := NormalizeProviderID(providerID)

	for _, known := range knownIDs {
		if NormalizeProviderID(known.Source) == id && strings.TrimSpace(known.ID) != "" {
			return &Resolution{ProviderID: id, ID: strings.TrimSpace(known.ID)}, nil
		}
	}

	if !rp.caps.has(mt, SlotSearch) {
		r.logger.Debug().Err(ErrSearchUnsupported).Str("providerId", id).Str("mediaType", string(mt)).Msg("Skipping provider without search")
		return nil, nil
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	results, err := r.search(ctx, rp, id, mt, name, locale)
	if err != nil {
		r.logger.Warn().Err(err).Str("providerId", id).Str("query", name).Msg("Provider search failed")
		return nil, nil
	}
	if len(results) == 0 || strings.TrimSpace(results[0].ID) == "" {
		r.logger.Debug().Str("providerId", id).Str("query", name).Msg("Provider search returned no results")
		return nil, nil
	}

	first := results[0]
	return &Resolution{
		ProviderID:   id,
		ID:           strings.TrimSpace(first.ID),
		OriginalName: strings.TrimSpace(first.OriginalName),
	}, nil
}

func (r *Resolver) search(ctx context.Context, rp registeredProvider, id string, mt MediaType, query, locale string) ([]SearchResult, error) {
	searcher, ok := rp.provider.(Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}

	start := time.Now()
	var results []SearchResult
	err := guard(func() error {
		var callErr error
		results, callErr = searcher.Search(ctx, mt, query, locale)
		return callErr
	})
	if err != nil {
		err = &ProviderError{ProviderID: id, Stage: "search", Err: err}
	}
	r.obs.providerCall(id, "search", SlotSearch, time.Since(start), err)
	return results, err
}

// ResolveAll resolves every provider the profile needs. The search provider
// goes first; the original name it reports replaces the lookup name for all
// other providers, which are then resolved concurrently.
func (r *Resolver) ResolveAll(ctx context.Context, profile *Profile, lookup Lookup, locale string) (map[string]Resolution, error) {
	resolved := make(map[string]Resolution)
	searchID := NormalizeProviderID(profile.SearchProviderID)

	name := lookup.Name
	primary, err := r.Resolve(ctx, profile.MediaType, searchID, lookup.Name, lookup.KnownIDs, locale)
	if err != nil {
		return nil, err
	}
	if primary != nil {
		resolved[searchID] = *primary
		if primary.OriginalName != "" {
			name = primary.OriginalName
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, providerID := range referencedProviders(profile) {
		if providerID == searchID {
			continue
		}
		if !r.registry.Has(providerID) {
			r.logger.Warn().Str("providerId", providerID).Str("profileId", profile.ID).Msg("Profile references unregistered provider, skipping")
			continue
		}

		providerID := providerID
		g.Go(func() error {
			res, err := r.Resolve(gctx, profile.MediaType, providerID, name, lookup.KnownIDs, locale)
			if err != nil {
				if !errors.Is(err, ErrProviderNotRegistered) {
					r.logger.Warn().Err(err).Str("providerId", providerID).Msg("Resolution failed")
				}
				return nil
			}
			if res == nil {
				return nil
			}
			mu.Lock()
			resolved[providerID] = *res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return resolved, nil
}

// referencedProviders returns the ids of providers referenced by enabled slot
// entries of valid slots, sorted.
func referencedProviders(profile *Profile) []string {
	seen := make(map[string]bool)
	for slot, cfg := range profile.SlotConfigs {
		if !IsValidSlot(profile.MediaType, slot) {
			continue
		}
		for _, entry := range cfg.Providers {
			if entry.Enabled {
				seen[NormalizeProviderID(entry.ProviderID)] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
