package profiles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	svc, _ := newTestService(t)
	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/profiles"))
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_CRUD(t *testing.T) {
	e := newTestServer(t)

	body := `{"id":"games","name":"Games","mediaType":"game","searchProviderId":"gamedb",
		"slotConfigs":{"info":{"mergeStrategy":"merge","providers":[{"providerId":"gamedb","priority":0,"enabled":true}]}}}`
	rec := doRequest(e, http.MethodPost, "/api/v1/profiles", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created metadata.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "games", created.ID)

	rec = doRequest(e, http.MethodPost, "/api/v1/profiles", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/profiles/games", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPut, "/api/v1/profiles/games",
		`{"name":"Renamed","mediaType":"game","searchProviderId":"gamedb"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated metadata.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Name)

	rec = doRequest(e, http.MethodGet, "/api/v1/profiles?mediaType=game", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []metadata.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doRequest(e, http.MethodDelete, "/api/v1/profiles/games", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/profiles/games", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_BadRequests(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed body", http.MethodPost, "/api/v1/profiles", `{"name":`},
		{"missing fields", http.MethodPost, "/api/v1/profiles", `{"name":"x"}`},
		{"unknown search provider", http.MethodPost, "/api/v1/profiles", `{"name":"x","mediaType":"game","searchProviderId":"nope"}`},
		{"invalid slot", http.MethodPost, "/api/v1/profiles", `{"name":"x","mediaType":"person","searchProviderId":"castlist","slotConfigs":{"tags":{}}}`},
		{"invalid media type filter", http.MethodGet, "/api/v1/profiles?mediaType=movie", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
