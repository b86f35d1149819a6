package domain

import "strings"

// ValueKind describes how a tag stores its values.
type ValueKind int

const (
	// KindIndexed tags hold a server-managed value list (e.g. Keywords).
	KindIndexed ValueKind = iota

	// KindFreeText tags hold arbitrary text per item (e.g. Description).
	KindFreeText

	// KindHierarchical tags hold an indexed value tree (e.g. Categories).
	KindHierarchical
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case KindIndexed:
		return "indexed"
	case KindFreeText:
		return "free-text"
	case KindHierarchical:
		return "hierarchical"
	default:
		return "unknown"
	}
}

// TagDefinition describes one metadata field in the catalog's taxonomy.
// Definitions are immutable for the lifetime of a session; numeric IDs vary
// per installation and must always be resolved through the schema cache.
type TagDefinition struct {
	// ID is the server's numeric tag identifier. Installation-specific.
	ID int64

	// GUID is the stable tag identifier used by write endpoints.
	GUID string

	// Name is the display name (e.g. "Keywords").
	Name string

	// Kind describes the tag's value space.
	Kind ValueKind
}

// TagValue is one entry within an indexed or hierarchical tag.
type TagValue struct {
	// ID is the server-assigned value identifier.
	ID int64

	// Text is the value's display text (e.g. one keyword).
	Text string

	// ParentID is the parent value for hierarchical tags, 0 for top level.
	ParentID int64

	// Count is the number of items carrying this value, when reported.
	Count int
}

// EqualText reports whether the value's text matches s, ignoring case.
// Exact-text matching is what the find-or-create path relies on to avoid
// creating duplicate taxonomy entries.
func (v TagValue) EqualText(s string) bool {
	return strings.EqualFold(strings.TrimSpace(v.Text), strings.TrimSpace(s))
}
