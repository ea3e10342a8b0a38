package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/config"
	"github.com/metadex/metadex/internal/health"
	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/metadata/mock"
	"github.com/metadex/metadex/internal/profiles"
	"github.com/metadex/metadex/internal/scheduler"
	"github.com/metadex/metadex/internal/testutil"
)

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	logger := tdb.Logger

	store := profiles.NewCachedStore(profiles.NewStore(tdb.Conn), profiles.NewCache(profiles.DefaultCacheConfig()))
	healthSvc := health.NewService(&logger)

	meta := metadata.NewService(store, metadata.StaticLocale("en"), &logger)
	meta.SetHealthService(healthSvc)
	for _, p := range mock.SampleProviders() {
		require.NoError(t, meta.RegisterProvider(p))
	}

	profileSvc := profiles.NewService(store, meta, &logger)
	n, err := profileSvc.Seed(context.Background(), mock.SampleProfiles())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	sched, err := scheduler.New(&logger)
	require.NoError(t, err)

	return NewServer(Deps{
		Metadata:  meta,
		Profiles:  profileSvc,
		Health:    healthSvc,
		DBCheck:   health.NewDatabaseChecker(healthSvc, tdb.Conn),
		Scheduler: sched,
	}, cfg, &logger)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_Lookup(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	rec := do(s, http.MethodPost, "/api/v1/metadata/game/lookup", `{"profileId":"sample-games","name":"Chrono Trigger"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var record metadata.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "Chrono Trigger", record.Info.Name)
	assert.Equal(t, []string{mock.GameDBID, mock.ArtbookID}, record.Sources[metadata.SlotInfo])
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	tests := []struct {
		method   string
		path     string
		want     int
		contains string
	}{
		{http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/api/v1/status", http.StatusOK, `"providers":3`},
		{http.MethodGet, "/api/v1/providers", http.StatusOK, `"id":"artbook"`},
		{http.MethodGet, "/api/v1/profiles", http.StatusOK, `"id":"sample-games"`},
		{http.MethodGet, "/api/v1/health/providers", http.StatusOK, `"id":"castlist"`},
		{http.MethodGet, "/api/v1/scheduler/tasks", http.StatusOK, `[]`},
		{http.MethodGet, "/api/v1/scheduler/tasks/missing", http.StatusNotFound, ""},
		{http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(s, tt.method, tt.path, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestServer_MetadataRateLimit(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{MetadataRateLimit: 1})
	body := `{"profileId":"sample-games","name":"Chrono Trigger"}`

	assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/api/v1/metadata/game/lookup", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodPost, "/api/v1/metadata/game/lookup", body).Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/v1/providers", "").Code, "only metadata routes are limited")
}
