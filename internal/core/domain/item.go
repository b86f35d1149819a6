package domain

import "strings"

// Item is a summary of one media item as returned by list endpoints.
type Item struct {
	// ID is the catalog item identifier.
	ID int64 `json:"id"`

	// Name is the item's display name or title.
	Name string `json:"name,omitempty"`

	// FileName is the underlying file name, when reported.
	FileName string `json:"fileName,omitempty"`
}

// FlagState is an item's review flag.
type FlagState int

const (
	// FlagUnknown means the flag could not be determined from metadata.
	FlagUnknown FlagState = iota

	// FlagUnflagged means the item carries no review flag.
	FlagUnflagged

	// FlagFlagged means the item is flagged (approved for processing).
	FlagFlagged

	// FlagRejected means the item is rejected.
	FlagRejected
)

// ItemMetadata is the full metadata for one item, flattened from the
// server's property-panel layout into field name/value pairs.
type ItemMetadata struct {
	// ID is the catalog item identifier.
	ID int64

	// Name is the item's display name.
	Name string

	// Fields maps display field names (lower-cased) to their text values.
	// A missing key or empty value means the field is untagged.
	Fields map[string]string

	// Flag is the item's review flag state.
	Flag FlagState
}

// NewItemMetadata returns empty metadata for an item id.
func NewItemMetadata(id int64) *ItemMetadata {
	return &ItemMetadata{ID: id, Fields: make(map[string]string)}
}

// SetField records a field value under its normalized name. Empty values
// are recorded too; they mark the field as present but untagged.
func (m *ItemMetadata) SetField(name, value string) {
	if m.Fields == nil {
		m.Fields = make(map[string]string)
	}
	m.Fields[normalizeFieldName(name)] = strings.TrimSpace(value)
}

// FieldEmpty reports whether the named field has no value on this item.
// Field names are matched case-insensitively.
func (m *ItemMetadata) FieldEmpty(name string) bool {
	if m.Fields == nil {
		return true
	}
	val, ok := m.Fields[normalizeFieldName(name)]
	return !ok || val == ""
}

// MissingAny reports whether any of the named fields is untagged.
func (m *ItemMetadata) MissingAny(fields []string) bool {
	for _, f := range fields {
		if m.FieldEmpty(f) {
			return true
		}
	}
	return false
}

// CatalogStats summarizes a catalog for connection checks.
type CatalogStats struct {
	TotalItems    int
	Collections   int
	SavedSearches int
}

// normalizeFieldName lower-cases and trims a field name for map lookup.
func normalizeFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
