package daminion

import (
	"bytes"
	"encoding/json"
)

// wrapperKeys are the object keys under which different server versions
// nest their item lists. Checked in order; the first list-typed value wins.
var wrapperKeys = []string{
	"mediaItems", "MediaItems",
	"items", "Items",
	"values", "nodes",
	"data", "collections",
}

// countKeys are the object keys under which different server versions
// report total counts.
var countKeys = []string{
	"totalCount", "TotalCount",
	"recordsTotal",
	"total", "count", "data",
}

// normalizeList extracts the canonical item sequence and reported total
// from a structurally heterogeneous response: a bare JSON list, or an
// object wrapping one under a known key. All shape-sniffing lives here so
// call sites can assume a uniform result.
func normalizeList(raw json.RawMessage) (items []json.RawMessage, total int, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, 0, false
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, false
		}
		return items, len(items), true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, 0, false
	}

	total = objectCount(obj)

	for _, key := range wrapperKeys {
		val, exists := obj[key]
		if !exists {
			continue
		}
		inner := bytes.TrimSpace(val)
		if len(inner) == 0 || inner[0] != '[' {
			continue
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			continue
		}
		if total == 0 {
			total = len(items)
		}
		return items, total, true
	}

	return nil, total, total > 0
}

// objectCount finds the first integer count field in a response object.
func objectCount(obj map[string]json.RawMessage) int {
	for _, key := range countKeys {
		val, exists := obj[key]
		if !exists {
			continue
		}
		var n int
		if err := json.Unmarshal(val, &n); err == nil {
			return n
		}
	}
	return 0
}

// decodeCount decodes a count response, which may be a bare number or an
// object carrying the count under data/count/totalCount.
func decodeCount(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}

	var n int
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return 0, false
	}
	for _, key := range countKeys {
		val, exists := obj[key]
		if !exists {
			continue
		}
		if err := json.Unmarshal(val, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// decodeID decodes a create-value response, which may be a bare id or an
// object carrying it under data/id.
func decodeID(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}

	var id int64
	if err := json.Unmarshal(trimmed, &id); err == nil {
		return id, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return 0, false
	}
	for _, key := range []string{"data", "id", "valueId"} {
		val, exists := obj[key]
		if !exists {
			continue
		}
		if err := json.Unmarshal(val, &id); err == nil {
			return id, true
		}
	}
	return 0, false
}
