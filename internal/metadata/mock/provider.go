// Package mock provides in-memory metadata providers for developer mode and tests.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/metadex/metadex/internal/metadata"
)

// Entity is the data a mock provider serves for one id.
type Entity struct {
	MediaType  metadata.MediaType
	Info       *metadata.Info
	Tags       []metadata.Tag
	Persons    []metadata.Person
	Companies  []metadata.Company
	Characters []metadata.Character
	Images     map[metadata.Slot][]string
}

// Provider is a configurable in-memory provider. It implements every slot
// interface; Capabilities decides which ones the engine may use.
type Provider struct {
	id   string
	name string

	mu       sync.Mutex
	caps     []metadata.Capability
	entities map[string]Entity
	search   map[string][]metadata.SearchResult
	delays   map[metadata.Slot]time.Duration
	errs     map[metadata.Slot]error
	panics   map[metadata.Slot]bool
	calls    map[metadata.Slot]int
	queries  []string
}

// New creates an empty mock provider.
func New(id, name string) *Provider {
	return &Provider{
		id:       id,
		name:     name,
		entities: make(map[string]Entity),
		search:   make(map[string][]metadata.SearchResult),
		delays:   make(map[metadata.Slot]time.Duration),
		errs:     make(map[metadata.Slot]error),
		panics:   make(map[metadata.Slot]bool),
		calls:    make(map[metadata.Slot]int),
	}
}

func (p *Provider) ID() string   { return p.id }
func (p *Provider) Name() string { return p.name }

func (p *Provider) Capabilities() []metadata.Capability {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]metadata.Capability, len(p.caps))
	copy(out, p.caps)
	return out
}

// WithCapabilities declares slots (including metadata.SlotSearch) for mt.
func (p *Provider) WithCapabilities(mt metadata.MediaType, slots ...metadata.Slot) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, slot := range slots {
		p.caps = append(p.caps, metadata.Capability{MediaType: mt, Slot: slot})
	}
	return p
}

// WithEntity serves e under id.
func (p *Provider) WithEntity(id string, e Entity) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entities[id] = e
	return p
}

// WithSearchResults makes a search for query return results, in order.
func (p *Provider) WithSearchResults(query string, results ...metadata.SearchResult) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search[metadata.NormalizeName(query)] = results
	return p
}

// WithDelay delays every call for slot (metadata.SlotSearch for searches).
func (p *Provider) WithDelay(slot metadata.Slot, d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays[slot] = d
	return p
}

// WithError makes every call for slot fail with err.
func (p *Provider) WithError(slot metadata.Slot, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[slot] = err
	return p
}

// WithPanic makes every call for slot panic.
func (p *Provider) WithPanic(slot metadata.Slot) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panics[slot] = true
	return p
}

// Calls returns how often slot was called.
func (p *Provider) Calls(slot metadata.Slot) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[slot]
}

// Queries returns the search queries received, in call order.
func (p *Provider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.queries))
	copy(out, p.queries)
	return out
}

// enter records a call and applies the configured delay, error and panic.
func (p *Provider) enter(ctx context.Context, slot metadata.Slot) error {
	p.mu.Lock()
	p.calls[slot]++
	delay := p.delays[slot]
	err := p.errs[slot]
	shouldPanic := p.panics[slot]
	p.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if shouldPanic {
		panic("mock provider " + p.id + " panicked in " + string(slot))
	}
	return err
}

func (p *Provider) entity(mt metadata.MediaType, id string) (Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entities[id]
	if !ok || (e.MediaType != "" && e.MediaType != mt) {
		return Entity{}, false
	}
	return e, true
}

// Search returns the configured results for query. Without configured results
// it matches entity names containing the query.
func (p *Provider) Search(ctx context.Context, mt metadata.MediaType, query, locale string) ([]metadata.SearchResult, error) {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()

	if err := p.enter(ctx, metadata.SlotSearch); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if results, ok := p.search[metadata.NormalizeName(query)]; ok {
		out := make([]metadata.SearchResult, len(results))
		copy(out, results)
		return out, nil
	}

	needle := metadata.NormalizeName(query)
	ids := make([]string, 0, len(p.entities))
	for id := range p.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []metadata.SearchResult
	for _, id := range ids {
		e := p.entities[id]
		if e.Info == nil || (e.MediaType != "" && e.MediaType != mt) || needle == "" {
			continue
		}
		if strings.Contains(metadata.NormalizeName(e.Info.Name), needle) ||
			strings.Contains(metadata.NormalizeName(e.Info.OriginalName), needle) {
			out = append(out, metadata.SearchResult{
				ID:           id,
				Name:         e.Info.Name,
				OriginalName: e.Info.OriginalName,
				Description:  e.Info.Description,
				ExternalIDs:  e.Info.ExternalIDs,
			})
		}
	}
	return out, nil
}

func (p *Provider) GetInfo(ctx context.Context, mt metadata.MediaType, id, locale string) (*metadata.Info, error) {
	if err := p.enter(ctx, metadata.SlotInfo); err != nil {
		return nil, err
	}
	e, ok := p.entity(mt, id)
	if !ok || e.Info == nil {
		return nil, nil
	}
	info := *e.Info
	return &info, nil
}

func (p *Provider) GetTags(ctx context.Context, mt metadata.MediaType, id, locale string) ([]metadata.Tag, error) {
	if err := p.enter(ctx, metadata.SlotTags); err != nil {
		return nil, err
	}
	e, _ := p.entity(mt, id)
	return e.Tags, nil
}

func (p *Provider) GetPersons(ctx context.Context, mt metadata.MediaType, id, locale string) ([]metadata.Person, error) {
	if err := p.enter(ctx, metadata.SlotPersons); err != nil {
		return nil, err
	}
	e, _ := p.entity(mt, id)
	return e.Persons, nil
}

func (p *Provider) GetCompanies(ctx context.Context, mt metadata.MediaType, id, locale string) ([]metadata.Company, error) {
	if err := p.enter(ctx, metadata.SlotCompanies); err != nil {
		return nil, err
	}
	e, _ := p.entity(mt, id)
	return e.Companies, nil
}

func (p *Provider) GetCharacters(ctx context.Context, mt metadata.MediaType, id, locale string) ([]metadata.Character, error) {
	if err := p.enter(ctx, metadata.SlotCharacters); err != nil {
		return nil, err
	}
	e, _ := p.entity(mt, id)
	return e.Characters, nil
}

func (p *Provider) images(ctx context.Context, slot metadata.Slot, mt metadata.MediaType, id string) ([]string, error) {
	if err := p.enter(ctx, slot); err != nil {
		return nil, err
	}
	e, _ := p.entity(mt, id)
	return e.Images[slot], nil
}

func (p *Provider) GetCovers(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotCovers, mt, id)
}

func (p *Provider) GetBackgrounds(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotBackgrounds, mt, id)
}

func (p *Provider) GetIcons(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotIcons, mt, id)
}

func (p *Provider) GetLogos(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotLogos, mt, id)
}

func (p *Provider) GetScreenshots(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotScreenshots, mt, id)
}

func (p *Provider) GetPhotos(ctx context.Context, mt metadata.MediaType, id, locale string) ([]string, error) {
	return p.images(ctx, metadata.SlotPhotos, mt, id)
}
