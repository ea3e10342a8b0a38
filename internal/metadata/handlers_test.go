package metadata_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/metadata/mock"
)

func newSampleServer(t *testing.T) *echo.Echo {
	t.Helper()
	var providers []metadata.Provider
	for _, p := range mock.SampleProviders() {
		providers = append(providers, p)
	}
	svc := newTestService(t, newMapStore(mock.SampleProfiles()...), providers...)

	e := echo.New()
	h := metadata.NewHandlers(svc)
	h.RegisterRoutes(e.Group("/api/v1/metadata"))
	h.RegisterProviderRoutes(e.Group("/api/v1/providers"))
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Lookup(t *testing.T) {
	e := newSampleServer(t)

	rec := serve(e, http.MethodPost, "/api/v1/metadata/game/lookup", `{"profileId":"sample-games","name":"chrono trigger"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record metadata.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "Chrono Trigger", record.Info.Name)
	assert.Equal(t, 9.6, record.Info.Rating)
	assert.Equal(t, []string{"SNES", "Nintendo DS"}, record.Info.Platforms)
	assert.Equal(t, []string{"https://img.example.com/artbook/ct-cover.png"}, record.Images[metadata.SlotCovers])
	assert.Len(t, record.Images[metadata.SlotScreenshots], 2)
	assert.Len(t, record.Companies, 2)
	assert.Len(t, record.Persons, 2)
	assert.Len(t, record.Characters, 2)
	assert.Equal(t, []string{mock.GameDBID, mock.ArtbookID}, record.Sources[metadata.SlotInfo])
}

func TestHandlers_LookupResponses(t *testing.T) {
	e := newSampleServer(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unidentified", "/api/v1/metadata/game/lookup", `{"profileId":"sample-games","name":"Final Fantasy"}`, http.StatusNoContent},
		{"malformed body", "/api/v1/metadata/game/lookup", `{"profileId":`, http.StatusBadRequest},
		{"missing profile id", "/api/v1/metadata/game/lookup", `{"name":"Chrono Trigger"}`, http.StatusBadRequest},
		{"missing name", "/api/v1/metadata/game/lookup", `{"profileId":"sample-games"}`, http.StatusBadRequest},
		{"unknown profile", "/api/v1/metadata/game/lookup", `{"profileId":"nope","name":"Chrono Trigger"}`, http.StatusNotFound},
		{"media type mismatch", "/api/v1/metadata/person/lookup", `{"profileId":"sample-games","name":"Chrono Trigger"}`, http.StatusBadRequest},
		{"invalid media type", "/api/v1/metadata/movie/lookup", `{"profileId":"sample-games","name":"Chrono Trigger"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlers_Search(t *testing.T) {
	e := newSampleServer(t)

	rec := serve(e, http.MethodGet, "/api/v1/metadata/game/search?profileId=sample-games&query=chrono", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var results []metadata.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "gdb-101", results[0].ID)

	rec = serve(e, http.MethodGet, "/api/v1/metadata/game/search?profileId=sample-games", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_SearchProviderFailure(t *testing.T) {
	primary, secondary, profile := twoProviderFixture()
	primary.WithError(metadata.SlotSearch, errors.New("search down"))
	svc := newTestService(t, newMapStore(profile), primary, secondary)
	e := echo.New()
	metadata.NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/metadata"))

	rec := serve(e, http.MethodGet, "/api/v1/metadata/game/search?profileId=games&query=chrono", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlers_ProviderImages(t *testing.T) {
	e := newSampleServer(t)

	rec := serve(e, http.MethodPost, "/api/v1/metadata/game/providers/artbook/images/screenshots", `{"name":"Chrono Trigger"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var images []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &images))
	assert.Equal(t, []string{
		"https://img.example.com/artbook/ct-1.png",
		"https://img.example.com/artbook/ct-2.png",
	}, images)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"not an image slot", "/api/v1/metadata/game/providers/artbook/images/tags", http.StatusBadRequest},
		{"unsupported slot", "/api/v1/metadata/game/providers/castlist/images/covers", http.StatusBadRequest},
		{"unknown provider", "/api/v1/metadata/game/providers/nope/images/covers", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, tt.path, `{"name":"Chrono Trigger"}`)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlers_Providers(t *testing.T) {
	e := newSampleServer(t)

	rec := serve(e, http.MethodGet, "/api/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var providers []metadata.ProviderInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	assert.Len(t, providers, 3)

	rec = serve(e, http.MethodDelete, "/api/v1/providers/artbook", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var outcomes map[string]metadata.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcomes))
	assert.Equal(t, metadata.OutcomeUpdated, outcomes["sample-games"])

	rec = serve(e, http.MethodDelete, "/api/v1/providers/artbook", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
