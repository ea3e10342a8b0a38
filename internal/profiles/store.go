package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metadex/metadex/internal/metadata"
)

const timeLayout = time.RFC3339Nano

// Store persists profiles in SQLite. It implements metadata.ProfileStore.
type Store struct {
	queries *Queries
	now     func() time.Time
}

// NewStore creates a profile store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		queries: NewQueries(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Load returns the profile with id. mt, when set, must match the stored media type.
func (s *Store) Load(ctx context.Context, mt metadata.MediaType, id string) (*metadata.Profile, error) {
	row, err := s.queries.GetProfile(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", metadata.ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", id, err)
	}

	profile, err := rowToProfile(row)
	if err != nil {
		return nil, err
	}
	if mt != "" && profile.MediaType != mt {
		return nil, fmt.Errorf("%w: profile %s is %s, not %s", metadata.ErrProfileMediaType, id, profile.MediaType, mt)
	}
	return profile, nil
}

// Save inserts or replaces the profile. CreatedAt is kept for existing rows.
func (s *Store) Save(ctx context.Context, profile *metadata.Profile) error {
	now := s.now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	row, err := profileToRow(profile)
	if err != nil {
		return err
	}
	if err := s.queries.UpsertProfile(ctx, row); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.ID, err)
	}
	return nil
}

// Insert stores the profile only if its id is unused and reports whether it did.
func (s *Store) Insert(ctx context.Context, profile *metadata.Profile) (bool, error) {
	now := s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	row, err := profileToRow(profile)
	if err != nil {
		return false, err
	}
	inserted, err := s.queries.InsertProfileIfAbsent(ctx, row)
	if err != nil {
		return false, fmt.Errorf("failed to insert profile %s: %w", profile.ID, err)
	}
	return inserted, nil
}

// Delete removes the profile. Deleting a missing profile is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.queries.DeleteProfile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	return nil
}

// List returns the profiles of mt, or all profiles when mt is empty.
func (s *Store) List(ctx context.Context, mt metadata.MediaType) ([]*metadata.Profile, error) {
	var (
		rows []ProfileRow
		err  error
	)
	if mt == "" {
		rows, err = s.queries.ListProfiles(ctx)
	} else {
		rows, err = s.queries.ListProfilesByMediaType(ctx, string(mt))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]*metadata.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := rowToProfile(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func rowToProfile(row ProfileRow) (*metadata.Profile, error) {
	p := &metadata.Profile{
		ID:               row.ID,
		Name:             row.Name,
		MediaType:        metadata.MediaType(row.MediaType),
		SearchProviderID: row.SearchProviderID,
		DefaultLocale:    row.DefaultLocale,
		SlotConfigs:      make(map[metadata.Slot]metadata.SlotConfig),
	}
	if row.SlotConfigs != "" {
		if err := json.Unmarshal([]byte(row.SlotConfigs), &p.SlotConfigs); err != nil {
			return nil, fmt.Errorf("failed to decode slot configs of profile %s: %w", row.ID, err)
		}
	}

	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, row.CreatedAt); err != nil {
		return nil, fmt.Errorf("invalid created_at of profile %s: %w", row.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, row.UpdatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at of profile %s: %w", row.ID, err)
	}
	return p, nil
}

func profileToRow(p *metadata.Profile) (ProfileRow, error) {
	slots := p.SlotConfigs
	if slots == nil {
		slots = map[metadata.Slot]metadata.SlotConfig{}
	}
	encoded, err := json.Marshal(slots)
	if err != nil {
		return ProfileRow{}, fmt.Errorf("failed to encode slot configs of profile %s: %w", p.ID, err)
	}
	return ProfileRow{
		ID:               p.ID,
		Name:             p.Name,
		MediaType:        string(p.MediaType),
		SearchProviderID: p.SearchProviderID,
		DefaultLocale:    p.DefaultLocale,
		SlotConfigs:      string(encoded),
		CreatedAt:        p.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:        p.UpdatedAt.UTC().Format(timeLayout),
	}, nil
}
