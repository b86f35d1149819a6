package daminion

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

func TestNew_URLValidation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		want    string
	}{
		{"valid", "http://dam.example.com:8080", false, "http://dam.example.com:8080"},
		{"trailing slash stripped", "http://dam.example.com/", false, "http://dam.example.com"},
		{"surrounding space", "  http://dam.example.com ", false, "http://dam.example.com"},
		{"empty", "", true, ""},
		{"no scheme", "dam.example.com", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{BaseURL: tt.url})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.cfg.BaseURL)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{BaseURL: "http://dam.example.com"})
	require.NoError(t, err)

	assert.Equal(t, defaultPageSize, c.cfg.PageSize)
	assert.Equal(t, defaultSearchCeiling, c.cfg.SearchCeiling)
	assert.Equal(t, defaultBruteForceThreshold, c.cfg.BruteForceThreshold)
	assert.Equal(t, defaultRequestInterval, c.cfg.RequestInterval)
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, c.cfg.Retry.MaxAttempts)
}

func TestClient_Connect(t *testing.T) {
	tc := newTestCatalog(t)
	c := tc.client(t)

	require.False(t, c.IsAuthenticated())
	require.NoError(t, c.Connect(context.Background()))

	assert.True(t, c.IsAuthenticated())
	// Schema is loaded as part of the handshake.
	assert.Equal(t, 1, tc.calls("/api/Settings/GetTags"))
}

func TestClient_Connect_BadCredentials(t *testing.T) {
	tc := newTestCatalog(t)
	c, err := New(Config{
		BaseURL:  tc.server.URL,
		Username: "tester",
		Password: "wrong",
		Retry:    RetryPolicy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	err = c.Connect(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.False(t, c.IsAuthenticated())
}

func TestClient_Connect_NoSessionCookie(t *testing.T) {
	tc := newTestCatalog(t)
	// 200 without a cookie is a rejection in disguise.
	tc.handle("/api/UserManager/Login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := tc.client(t)

	err := c.Connect(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.ErrorIs(t, err, ErrNoSessionCookie)
}

func TestClient_Logout(t *testing.T) {
	tc := newTestCatalog(t)
	c := connectedClient(t, tc)

	c.Logout(context.Background())

	assert.False(t, c.IsAuthenticated())
	assert.Equal(t, 1, tc.calls("/api/UserManager/Logout"))

	// Idempotent: a second logout does nothing.
	c.Logout(context.Background())
	assert.Equal(t, 1, tc.calls("/api/UserManager/Logout"))
}

func TestClient_Tags(t *testing.T) {
	tc := newTestCatalog(t)
	c := connectedClient(t, tc)

	tags, err := c.Tags(context.Background())

	require.NoError(t, err)
	assert.Len(t, tags, 6)
	assert.Contains(t, tags, "Keywords")
	assert.Contains(t, tags, "Flag")
}

func TestClient_Collections(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/IndexedTagValues/GetIndexedTagValues",
		`{"values": [{"id": 35, "text": "Client Review", "count": 12}]}`)
	c := connectedClient(t, tc)

	cols, err := c.Collections(context.Background())

	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, int64(35), cols[0].ID)
	assert.Equal(t, "Client Review", cols[0].Text)
	assert.Equal(t, 12, cols[0].Count)
}

func TestClient_Stats(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/MediaItems/GetCount", `{"data": 8214}`)
	tc.handleJSON("/api/IndexedTagValues/GetIndexedTagValues",
		`{"values": [{"id": 1, "text": "v"}]}`)
	c := connectedClient(t, tc)

	stats, err := c.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8214, stats.TotalItems)
	assert.Equal(t, 1, stats.Collections)
	assert.Equal(t, 1, stats.SavedSearches)
}

func TestClient_ReloadSchema(t *testing.T) {
	tc := newTestCatalog(t)
	c := connectedClient(t, tc)
	require.Equal(t, 1, tc.calls("/api/Settings/GetTags"))

	require.NoError(t, c.ReloadSchema(context.Background()))

	assert.Equal(t, 2, tc.calls("/api/Settings/GetTags"))
}

func TestClient_MethodsRequireAuth(t *testing.T) {
	tc := newTestCatalog(t)
	c := tc.client(t)
	ctx := context.Background()

	_, err := c.Tags(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = c.FetchMetadata(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = c.Stats(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
