package domain

import "fmt"

// Scope selects which portion of the catalog a search runs against.
// Exactly one scope is active per query.
type Scope int

const (
	// ScopeAll searches the entire catalog.
	ScopeAll Scope = iota

	// ScopeSavedSearch restricts results to a server-side saved search.
	ScopeSavedSearch

	// ScopeCollection restricts results to a shared collection.
	ScopeCollection

	// ScopeSearch runs a free-text search.
	ScopeSearch
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeSavedSearch:
		return "saved-search"
	case ScopeCollection:
		return "collection"
	case ScopeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// ParseScope converts a scope name to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "all", "":
		return ScopeAll, nil
	case "saved-search", "saved_search":
		return ScopeSavedSearch, nil
	case "collection":
		return ScopeCollection, nil
	case "search":
		return ScopeSearch, nil
	default:
		return ScopeAll, fmt.Errorf("%w: scope %q", ErrInvalidFilter, s)
	}
}

// StatusFilter narrows results by review flag.
type StatusFilter int

const (
	// StatusAny applies no flag filtering.
	StatusAny StatusFilter = iota

	// StatusFlagged keeps only flagged items.
	StatusFlagged

	// StatusRejected keeps only rejected items.
	StatusRejected

	// StatusUnflagged keeps only unflagged items.
	StatusUnflagged
)

// String returns the status filter name.
func (s StatusFilter) String() string {
	switch s {
	case StatusAny:
		return "any"
	case StatusFlagged:
		return "flagged"
	case StatusRejected:
		return "rejected"
	case StatusUnflagged:
		return "unflagged"
	default:
		return "unknown"
	}
}

// ParseStatusFilter converts a status name to a StatusFilter.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch s {
	case "any", "":
		return StatusAny, nil
	case "flagged":
		return StatusFlagged, nil
	case "rejected":
		return StatusRejected, nil
	case "unflagged":
		return StatusUnflagged, nil
	default:
		return StatusAny, fmt.Errorf("%w: status %q", ErrInvalidFilter, s)
	}
}

// SearchFilters is the high-level search intent accepted from callers.
// The connector translates it into the server's structured query syntax;
// callers never construct query strings themselves.
type SearchFilters struct {
	// Scope selects the search scope. Exactly one is active.
	Scope Scope

	// Status narrows by review flag.
	Status StatusFilter

	// Term is the free-text term for ScopeSearch.
	Term string

	// SavedSearchID is the saved-search value id for ScopeSavedSearch.
	SavedSearchID int64

	// CollectionID is the collection value id for ScopeCollection.
	CollectionID int64

	// MissingFields keeps only items lacking a value for any of the named
	// fields (e.g. "keywords", "description"). Evaluated client-side.
	MissingFields []string

	// MaxItems caps the number of items retrieved. Zero means no cap.
	MaxItems int
}

// Validate checks that the filter combination is coherent.
func (f SearchFilters) Validate() error {
	switch f.Scope {
	case ScopeSavedSearch:
		if f.SavedSearchID == 0 {
			return fmt.Errorf("%w: saved-search scope requires an id", ErrInvalidFilter)
		}
	case ScopeCollection:
		if f.CollectionID == 0 {
			return fmt.Errorf("%w: collection scope requires an id", ErrInvalidFilter)
		}
	case ScopeSearch:
		if f.Term == "" {
			return fmt.Errorf("%w: search scope requires a term", ErrInvalidFilter)
		}
	}
	return nil
}

// Operator is a per-tag combination mode for structured queries.
type Operator string

const (
	// OperatorAny matches items carrying any of the tag's listed values.
	OperatorAny Operator = "any"

	// OperatorAll matches items carrying all of the tag's listed values.
	OperatorAll Operator = "all"
)

// Clause is one (tag, value) predicate in a structured query.
type Clause struct {
	TagID   int64
	ValueID int64
}

// StructuredQuery is an ordered list of tag/value clauses with per-tag
// combination operators. Built fresh per search; immutable once constructed.
type StructuredQuery struct {
	Clauses   []Clause
	Operators map[int64]Operator
}

// OperatorFor returns the combination operator for a tag, defaulting to any.
func (q StructuredQuery) OperatorFor(tagID int64) Operator {
	if op, ok := q.Operators[tagID]; ok {
		return op
	}
	return OperatorAny
}

// Empty reports whether the query has no clauses.
func (q StructuredQuery) Empty() bool {
	return len(q.Clauses) == 0
}

// BatchOperation is one tag add/remove applied to a set of items in a
// single batch write. Either ValueID or Value is set; symbolic text values
// are resolved to value ids by the connector before submission.
type BatchOperation struct {
	// Tag is the display name of the tag to modify.
	Tag string

	// Value is the symbolic text value (resolved before submission for
	// indexed tags, sent as-is for free-text tags).
	Value string

	// ValueID is a pre-resolved value id. Takes precedence over Value.
	ValueID int64

	// Remove removes the value instead of adding it.
	Remove bool
}
