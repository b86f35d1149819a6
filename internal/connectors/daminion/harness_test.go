package daminion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// standardTags is the schema served by the test server: realistic ids and
// the taxonomies role discovery must find.
const standardTags = `[
	{"id": 11, "guid": "1cfceb4c-bbcc-4998-a1bb-82a06ec4c169", "name": "Keywords", "type": "tree", "indexed": true},
	{"id": 12, "guid": "96a23d17-3f42-4bb1-a43e-ccb0ba5436ba", "name": "Categories", "type": "tree", "indexed": true},
	{"id": 13, "guid": "ae8b6b98-0280-4476-9a75-76de0c9e543e", "name": "Description", "type": "text", "indexed": false},
	{"id": 40, "guid": "b6f39ad4-45a9-47ea-a5b8-63cf8e0ebd4a", "name": "Saved Searches", "type": "list", "indexed": true},
	{"id": 41, "guid": "0f8e2b3a-7c44-4b6e-a9a0-5c3be0f9c2d1", "name": "Shared Collections", "type": "list", "indexed": true},
	{"id": 42, "guid": "6e3bf5cf-2a4a-4f6e-8a9f-9a27cf6e0001", "name": "Flag", "type": "list", "indexed": true}
]`

// testCatalog is a configurable fake Daminion server. Registering a path
// twice overrides the previous handler, so tests can replace the defaults.
type testCatalog struct {
	handlers map[string]http.HandlerFunc
	server   *httptest.Server

	// requests counts calls per path.
	requests map[string]int
}

func newTestCatalog(t *testing.T) *testCatalog {
	t.Helper()
	tc := &testCatalog{
		handlers: make(map[string]http.HandlerFunc),
		requests: make(map[string]int),
	}
	tc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc.requests[r.URL.Path]++
		h, ok := tc.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(tc.server.Close)

	tc.handle("/api/UserManager/Login", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("password") == "wrong" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: ".ASPXAUTH", Value: "session-token"})
		w.WriteHeader(http.StatusOK)
	})
	tc.handle("/api/UserManager/Logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	tc.handleJSON("/api/Settings/GetTags", standardTags)
	return tc
}

func (tc *testCatalog) handle(path string, h http.HandlerFunc) {
	tc.handlers[path] = h
}

func (tc *testCatalog) handleJSON(path, body string) {
	tc.handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (tc *testCatalog) calls(path string) int {
	return tc.requests[path]
}

// client builds a fast-paced client against the fake server.
func (tc *testCatalog) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:         tc.server.URL,
		Username:        "tester",
		Password:        "secret",
		RequestInterval: time.Millisecond,
		Retry:           RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

// itemList renders a MediaItems/Get style response body.
func itemList(total int, ids ...int64) string {
	type item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	items := make([]item, len(ids))
	for i, id := range ids {
		items[i] = item{ID: id, Name: "item"}
	}
	body, _ := json.Marshal(map[string]any{
		"mediaItems": items,
		"totalCount": total,
	})
	return string(body)
}
