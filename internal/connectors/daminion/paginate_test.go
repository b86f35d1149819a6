package daminion

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

// pagedClient builds a client with small pages so multi-page behavior is
// exercised with few items.
func pagedClient(t *testing.T, tc *testCatalog) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:         tc.server.URL,
		Username:        "tester",
		Password:        "secret",
		RequestInterval: time.Millisecond,
		PageSize:        10,
		SearchCeiling:   20,
		Retry:           RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	return c
}

// serveItemPages serves MediaItems/Get from a fixed id space, honoring the
// index/size or start/length cursor.
func serveItemPages(tc *testCatalog, total int) {
	tc.handle("/api/MediaItems/Get", func(w http.ResponseWriter, r *http.Request) {
		index, _ := strconv.Atoi(r.URL.Query().Get("index"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if r.URL.Query().Get("search") != "" {
			index, _ = strconv.Atoi(r.URL.Query().Get("start"))
			size, _ = strconv.Atoi(r.URL.Query().Get("length"))
		}

		var ids []int64
		for i := index; i < index+size && i < total; i++ {
			ids = append(ids, int64(i+1))
		}
		_, _ = w.Write([]byte(itemList(total, ids...)))
	})
	tc.handleJSON("/api/MediaItems/GetCount", fmt.Sprintf(`{"data": %d}`, total))
}

func TestFetchAll_ExactRetrieval(t *testing.T) {
	tc := newTestCatalog(t)
	serveItemPages(tc, 23)
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
	})

	require.NoError(t, err)
	assert.Equal(t, 23, result.Retrieved)
	assert.Equal(t, 23, result.ReportedTotal)
	assert.Len(t, result.Items, 23)
	assert.False(t, result.Truncated)
	assert.False(t, result.Approximate)
	assert.Equal(t, int64(1), result.Items[0].ID)
	assert.Equal(t, int64(23), result.Items[22].ID)
}

func TestFetchAll_MaxItemsCap(t *testing.T) {
	tc := newTestCatalog(t)
	serveItemPages(tc, 23)
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
		MaxItems:      15,
	})

	require.NoError(t, err)
	assert.Equal(t, 15, result.Retrieved)
	assert.Len(t, result.Items, 15)
}

func TestFetchAll_FreeTextCeiling(t *testing.T) {
	tc := newTestCatalog(t)
	// Server reports 1200 matches but the ceiling stops retrieval at 20.
	serveItemPages(tc, 1200)
	tc.handleJSON("/api/IndexedTagValues/GetIndexedTagValues", `{"values": []}`)
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope: domain.ScopeSearch,
		Term:  "sunset",
	})

	require.NoError(t, err)
	assert.Equal(t, 20, result.Retrieved)
	assert.True(t, result.Truncated)
	assert.True(t, result.Approximate)
	assert.Equal(t, 1200, result.ReportedTotal)
}

func TestFetchAll_FreeTextEmptyPageBeforeTotal(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/IndexedTagValues/GetIndexedTagValues", `{"values": []}`)
	tc.handle("/api/MediaItems/Get", func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		if start > 0 {
			// Silent cap: nothing past the first page despite the total.
			_, _ = w.Write([]byte(itemList(50)))
			return
		}
		_, _ = w.Write([]byte(itemList(50, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)))
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope: domain.ScopeSearch,
		Term:  "sunset",
	})

	require.NoError(t, err)
	assert.Equal(t, 10, result.Retrieved)
	assert.True(t, result.Truncated)
	assert.True(t, result.Approximate)
}

func TestFetchAll_ColonSyntaxRetry(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/MediaItems/GetCount", `{"data": 3}`)
	tc.handle("/api/MediaItems/Get", func(w http.ResponseWriter, r *http.Request) {
		line := r.URL.Query().Get("queryLine")
		// This server version rejects the comma form: zero items despite a
		// nonzero count.
		if line == "40:117" {
			_, _ = w.Write([]byte(itemList(3, 1, 2, 3)))
			return
		}
		_, _ = w.Write([]byte(itemList(3)))
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Retrieved)
	assert.False(t, result.Truncated)
}

func TestFetchAll_CollectionAccessCodeFallback(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/MediaItems/GetCount", `{"data": 2}`)
	tc.handleJSON("/api/MediaItems/Get", itemList(2))
	tc.handleJSON("/api/SharedCollection/GetDetails/35", `{"code": "k3y", "itemCount": 2}`)
	tc.handle("/api/SharedCollection/PublicItems", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "k3y", r.URL.Query().Get("code"))
		if r.URL.Query().Get("index") != "0" {
			_, _ = w.Write([]byte(itemList(2)))
			return
		}
		_, _ = w.Write([]byte(itemList(2, 81, 82)))
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:        domain.ScopeCollection,
		CollectionID: 35,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{81, 82}, result.IDs())
	assert.Zero(t, tc.calls("/api/MediaItems/GetByIds"), "brute force must not run when the fallback succeeds")
}

func TestFetchAll_BruteForceScan(t *testing.T) {
	tc := newTestCatalog(t)
	// 30 catalog items, the structured query reports 3 but serves none.
	tc.handleJSON("/api/MediaItems/GetCount", `{"data": 3}`)
	tc.handleJSON("/api/MediaItems/Get", itemList(3))
	tc.handle("/api/MediaItems/GetByIds", func(w http.ResponseWriter, r *http.Request) {
		// Only the first id batch contains the matching items.
		if !strings.HasPrefix(r.URL.Query().Get("ids"), "1,") {
			_, _ = w.Write([]byte(itemList(0)))
			return
		}
		_, _ = w.Write([]byte(itemList(3, 5, 6, 7)))
	})
	tc.handle("/api/ItemData/Get", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		_, _ = w.Write([]byte(`{"id": ` + id + `, "name": "img", "properties": []}`))
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7}, result.IDs())
	assert.NotZero(t, tc.calls("/api/MediaItems/GetByIds"))
}

func TestFetchAll_BruteForceGate(t *testing.T) {
	tc := newTestCatalog(t)
	// Large catalog: the count/items contradiction must NOT trigger an
	// id-enumeration scan.
	tc.handle("/api/MediaItems/GetCount", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("queryLine") != "" || r.URL.Query().Get("search") != "" {
			_, _ = w.Write([]byte(`{"data": 3}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": 50000}`))
	})
	tc.handleJSON("/api/MediaItems/Get", itemList(3))
	tc.handle("/api/MediaItems/GetByIds", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("brute-force scan must be gated on large catalogs")
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
	})

	require.NoError(t, err)
	assert.Zero(t, result.Retrieved)
}

func TestFetchAll_PostFilterMissingFields(t *testing.T) {
	tc := newTestCatalog(t)
	serveItemPages(tc, 2)
	tc.handle("/api/ItemData/Get", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "1" {
			_, _ = w.Write([]byte(`{"id": 1, "name": "tagged", "properties": [
				{"propertyName": "Keywords", "propertyValue": "bird", "values": [{"id": 9}]}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id": 2, "name": "untagged", "properties": [
			{"propertyName": "Keywords", "propertyValue": "", "values": []}]}`))
	})
	c := pagedClient(t, tc)

	result, err := c.Search(context.Background(), domain.SearchFilters{
		Scope:         domain.ScopeSavedSearch,
		SavedSearchID: 117,
		MissingFields: []string{"keywords"},
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, result.IDs())
}

func TestCatalogTotal(t *testing.T) {
	tc := newTestCatalog(t)
	tc.handleJSON("/api/MediaItems/GetCount", `8214`)
	c := connectedClient(t, tc)

	total, err := c.CatalogTotal(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8214, total)
}

func TestFetchAll_RequiresAuth(t *testing.T) {
	tc := newTestCatalog(t)
	c := tc.client(t)

	_, err := c.Search(context.Background(), domain.SearchFilters{Scope: domain.ScopeAll})

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
