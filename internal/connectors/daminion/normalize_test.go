package daminion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantTotal int
		wantOK    bool
	}{
		{
			name:      "bare list",
			raw:       `[{"id": 1}, {"id": 2}]`,
			wantLen:   2,
			wantTotal: 2,
			wantOK:    true,
		},
		{
			name:      "mediaItems wrapper with totalCount",
			raw:       `{"mediaItems": [{"id": 1}], "totalCount": 40}`,
			wantLen:   1,
			wantTotal: 40,
			wantOK:    true,
		},
		{
			name:      "capitalized wrapper",
			raw:       `{"MediaItems": [{"id": 1}, {"id": 2}], "TotalCount": 2}`,
			wantLen:   2,
			wantTotal: 2,
			wantOK:    true,
		},
		{
			name:      "values wrapper without count",
			raw:       `{"values": [{"id": 7}]}`,
			wantLen:   1,
			wantTotal: 1,
			wantOK:    true,
		},
		{
			name:      "count only",
			raw:       `{"totalCount": 12}`,
			wantLen:   0,
			wantTotal: 12,
			wantOK:    true,
		},
		{
			name:   "empty body",
			raw:    ``,
			wantOK: false,
		},
		{
			name:   "unrecognized object",
			raw:    `{"something": "else"}`,
			wantOK: false,
		},
		{
			name:   "scalar",
			raw:    `42`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, ok := normalizeList(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Len(t, items, tt.wantLen)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestDecodeCount(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{"bare int", `1234`, 1234, true},
		{"data wrapper", `{"data": 56}`, 56, true},
		{"count wrapper", `{"count": 7}`, 7, true},
		{"totalCount wrapper", `{"totalCount": 9}`, 9, true},
		{"zero", `0`, 0, true},
		{"string", `"n/a"`, 0, false},
		{"empty", ``, 0, false},
		{"unrelated object", `{"status": "ok"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := decodeCount(json.RawMessage(tt.raw))
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestDecodeID(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int64
		wantOK bool
	}{
		{"bare id", `991`, 991, true},
		{"data wrapper", `{"data": 17}`, 17, true},
		{"id wrapper", `{"id": 5}`, 5, true},
		{"valueId wrapper", `{"valueId": 23}`, 23, true},
		{"empty", ``, 0, false},
		{"non-numeric", `{"data": "x"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := decodeID(json.RawMessage(tt.raw))
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestDecodeItems_SkipsMalformedEntries(t *testing.T) {
	entries := []json.RawMessage{
		json.RawMessage(`{"id": 1, "name": "a"}`),
		json.RawMessage(`{"name": "no id"}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"mediaItemId": 3, "title": "b"}`),
	}

	items := decodeItems(entries)

	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, int64(3), items[1].ID)
	assert.Equal(t, "b", items[1].Name)
}
