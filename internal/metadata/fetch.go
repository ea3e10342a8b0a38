package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// fetchTask is one (slot, provider) call.
type fetchTask struct {
	slot       Slot
	providerID string
	priority   int
	id         string
}

// Fetcher runs the per-slot provider calls of a profile concurrently.
type Fetcher struct {
	registry *Registry
	obs      *observer
	logger   zerolog.Logger
}

// NewFetcher creates a fetch orchestrator over the given registry.
func NewFetcher(registry *Registry, logger *zerolog.Logger) *Fetcher {
	return newFetcher(registry, &observer{}, logger)
}

func newFetcher(registry *Registry, obs *observer, logger *zerolog.Logger) *Fetcher {
	return &Fetcher{
		registry: registry,
		obs:      obs,
		logger:   logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch calls every enabled provider of every valid slot that has a resolved id.
// Failed and empty calls produce no result; the returned order is unspecified.
func (f *Fetcher) Fetch(ctx context.Context, profile *Profile, resolved map[string]Resolution, locale string) []SlotResult {
	tasks := f.plan(profile, resolved)

	var (
		mu      sync.Mutex
		results = make([]SlotResult, 0, len(tasks))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			result, err := f.run(gctx, profile.MediaType, task, locale)
			if err != nil {
				f.logger.Warn().Err(err).
					Str("providerId", task.providerID).
					Str("slot", string(task.slot)).
					Str("profileId", profile.ID).
					Msg("Slot fetch failed")
				return nil
			}
			if result.Empty() {
				return nil
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) plan(profile *Profile, resolved map[string]Resolution) []fetchTask {
	var tasks []fetchTask
	for _, slot := range SlotsFor(profile.MediaType) {
		cfg, ok := profile.SlotConfigs[slot]
		if !ok {
			continue
		}
		for _, entry := range cfg.Providers {
			if !entry.Enabled {
				continue
			}
			providerID := NormalizeProviderID(entry.ProviderID)
			res, ok := resolved[providerID]
			if !ok {
				continue
			}
			if !f.registry.Supports(providerID, profile.MediaType, slot) {
				f.logger.Debug().Str("providerId", providerID).Str("slot", string(slot)).Msg("Provider does not support slot, skipping")
				continue
			}
			tasks = append(tasks, fetchTask{slot: slot, providerID: providerID, priority: entry.Priority, id: res.ID})
		}
	}
	return tasks
}

func (f *Fetcher) run(ctx context.Context, mt MediaType, task fetchTask, locale string) (SlotResult, error) {
	result := SlotResult{Slot: task.slot, ProviderID: task.providerID, Priority: task.priority}

	p, ok := f.registry.Get(task.providerID)
	if !ok {
		return result, fmt.Errorf("%w: %q", ErrProviderNotRegistered, task.providerID)
	}

	start := time.Now()
	err := guard(func() error {
		return fetchSlot(ctx, p, mt, task.slot, task.id, locale, &result)
	})
	if err != nil {
		err = &ProviderError{ProviderID: task.providerID, Stage: "fetch", Slot: task.slot, Err: err}
	}
	f.obs.providerCall(task.providerID, "fetch", task.slot, time.Since(start), err)
	return result, err
}

// fetchSlot calls the method backing slot and stores its payload in result.
func fetchSlot(ctx context.Context, p Provider, mt MediaType, slot Slot, id, locale string, result *SlotResult) error {
	var err error
	switch slot {
	case SlotInfo:
		if fp, ok := p.(InfoFetcher); ok {
			result.Info, err = fp.GetInfo(ctx, mt, id, locale)
			return err
		}
	case SlotTags:
		if fp, ok := p.(TagsFetcher); ok {
			result.Tags, err = fp.GetTags(ctx, mt, id, locale)
			return err
		}
	case SlotPersons:
		if fp, ok := p.(PersonsFetcher); ok {
			result.Persons, err = fp.GetPersons(ctx, mt, id, locale)
			return err
		}
	case SlotCompanies:
		if fp, ok := p.(CompaniesFetcher); ok {
			result.Companies, err = fp.GetCompanies(ctx, mt, id, locale)
			return err
		}
	case SlotCharacters:
		if fp, ok := p.(CharactersFetcher); ok {
			result.Characters, err = fp.GetCharacters(ctx, mt, id, locale)
			return err
		}
	default:
		if slot.IsImage() {
			result.Images, err = fetchImages(ctx, p, mt, slot, id, locale)
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrSlotUnsupported, slot)
}

// fetchImages calls the image method backing slot.
func fetchImages(ctx context.Context, p Provider, mt MediaType, slot Slot, id, locale string) ([]string, error) {
	switch slot {
	case SlotCovers:
		if fp, ok := p.(CoversFetcher); ok {
			return fp.GetCovers(ctx, mt, id, locale)
		}
	case SlotBackgrounds:
		if fp, ok := p.(BackgroundsFetcher); ok {
			return fp.GetBackgrounds(ctx, mt, id, locale)
		}
	case SlotIcons:
		if fp, ok := p.(IconsFetcher); ok {
			return fp.GetIcons(ctx, mt, id, locale)
		}
	case SlotLogos:
		if fp, ok := p.(LogosFetcher); ok {
			return fp.GetLogos(ctx, mt, id, locale)
		}
	case SlotScreenshots:
		if fp, ok := p.(ScreenshotsFetcher); ok {
			return fp.GetScreenshots(ctx, mt, id, locale)
		}
	case SlotPhotos:
		if fp, ok := p.(PhotosFetcher); ok {
			return fp.GetPhotos(ctx, mt, id, locale)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSlotUnsupported, slot)
}
