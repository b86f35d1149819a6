package daminion

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// querySyntax selects the clause separator within queryLine. Some server
// versions reject the comma form and accept the colon form; the pagination
// engine switches to the alternate syntax when the primary yields zero
// items against a nonzero reported count.
type querySyntax int

const (
	syntaxComma querySyntax = iota
	syntaxColon
)

// Query is a fully resolved search plan: the structured clauses to send,
// the free-text term (when no indexed value matched), and the predicates
// that must be evaluated client-side.
type Query struct {
	Scope      domain.Scope
	Structured domain.StructuredQuery

	// Term is the free-text term sent via the search parameter when the
	// scope is ScopeSearch and the term did not resolve to a tag value.
	Term string

	// Status is the requested flag filter. When statusLocal is set the
	// server could not express it and it is applied client-side.
	Status      domain.StatusFilter
	statusLocal bool

	// MissingFields are always evaluated client-side against per-item
	// metadata; the server has no such predicate.
	MissingFields []string

	// CollectionID is kept for the public-items fallback path.
	CollectionID int64
}

// BuildQuery translates a high-level search intent into the server's
// structured query syntax. Callers outside this package must never
// construct query strings themselves.
func (c *Client) BuildQuery(ctx context.Context, f domain.SearchFilters) (*Query, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := c.schema.load(ctx); err != nil {
		return nil, err
	}

	q := &Query{
		Scope:         f.Scope,
		Status:        f.Status,
		MissingFields: f.MissingFields,
		Structured:    domain.StructuredQuery{Operators: make(map[int64]domain.Operator)},
	}

	switch f.Scope {
	case domain.ScopeSavedSearch:
		def, ok := c.schema.role(RoleSavedSearches)
		if !ok {
			return nil, fmt.Errorf("%w: saved searches", ErrRoleNotFound)
		}
		q.addClause(def.ID, f.SavedSearchID, domain.OperatorAny)

	case domain.ScopeCollection:
		def, ok := c.schema.role(RoleSharedCollections)
		if !ok {
			return nil, fmt.Errorf("%w: shared collections", ErrRoleNotFound)
		}
		q.addClause(def.ID, f.CollectionID, domain.OperatorAny)
		q.CollectionID = f.CollectionID

	}

	// A term may accompany any scope; combined with scope clauses it
	// narrows them.
	if f.Term != "" {
		if err := c.resolveTerm(ctx, q, f.Term); err != nil {
			return nil, err
		}
	}

	if f.Status != domain.StatusAny {
		flagValue, _ := flagValueFor(f.Status)
		if def, ok := c.schema.role(RoleFlag); ok {
			q.addClause(def.ID, flagValue, domain.OperatorAny)
		} else {
			// No Flag tag discovered; filter after retrieval.
			q.statusLocal = true
		}
	}

	return q, nil
}

// resolveTerm turns a free-text term into a keywords clause when the term
// matches an existing keyword value exactly, falling back to the server's
// free-text search otherwise. When the keyword clause is combined with
// other predicates its operator is all: scope and term must intersect, a
// union would silently over-broaden the result set.
func (c *Client) resolveTerm(ctx context.Context, q *Query, term string) error {
	def, ok := c.schema.role(RoleKeywords)
	if !ok {
		q.Term = term
		return nil
	}

	values, err := c.schema.tagValues(ctx, def.ID, term, AllLevels)
	if err != nil {
		logger.Warn("daminion: keyword lookup for %q failed, using free-text search: %v", term, err)
		q.Term = term
		return nil
	}
	for _, v := range values {
		if v.EqualText(term) {
			op := domain.OperatorAny
			if !q.Structured.Empty() {
				op = domain.OperatorAll
			}
			q.addClause(def.ID, v.ID, op)
			return nil
		}
	}

	q.Term = term
	return nil
}

func (q *Query) addClause(tagID, valueID int64, op domain.Operator) {
	q.Structured.Clauses = append(q.Structured.Clauses, domain.Clause{TagID: tagID, ValueID: valueID})
	q.Structured.Operators[tagID] = op
}

// queryLine renders the clauses in the requested syntax:
// comma form "40,117;42,2" or colon form "40:117;42:2".
func (q *Query) queryLine(syntax querySyntax) string {
	sep := ","
	if syntax == syntaxColon {
		sep = ":"
	}
	parts := make([]string, len(q.Structured.Clauses))
	for i, cl := range q.Structured.Clauses {
		parts[i] = strconv.FormatInt(cl.TagID, 10) + sep + strconv.FormatInt(cl.ValueID, 10)
	}
	return strings.Join(parts, ";")
}

// operatorLine renders the per-tag operators, e.g. "40,any;42,all", with
// tags in first-clause order.
func (q *Query) operatorLine() string {
	var parts []string
	seen := make(map[int64]bool)
	for _, cl := range q.Structured.Clauses {
		if seen[cl.TagID] {
			continue
		}
		seen[cl.TagID] = true
		parts = append(parts, fmt.Sprintf("%d,%s", cl.TagID, q.Structured.OperatorFor(cl.TagID)))
	}
	return strings.Join(parts, ";")
}

// needsLocalFilter reports whether retrieved items must pass a client-side
// metadata check before being returned.
func (q *Query) needsLocalFilter() bool {
	return q.statusLocal || len(q.MissingFields) > 0
}

// matchesPostFilter applies the predicates the server could not express
// to an already-retrieved item.
func (q *Query) matchesPostFilter(meta *domain.ItemMetadata) bool {
	if q.statusLocal && !statusMatches(q.Status, meta.Flag) {
		return false
	}
	if len(q.MissingFields) > 0 && !meta.MissingAny(q.MissingFields) {
		return false
	}
	return true
}

// matchesBruteForce applies the full query predicate locally. Used by the
// brute-force scan, where nothing was filtered server-side.
func (q *Query) matchesBruteForce(meta *domain.ItemMetadata) bool {
	if !statusMatches(q.Status, meta.Flag) {
		return false
	}
	if len(q.MissingFields) > 0 && !meta.MissingAny(q.MissingFields) {
		return false
	}
	if q.Term != "" {
		term := strings.ToLower(q.Term)
		if !strings.Contains(strings.ToLower(meta.Name), term) &&
			!strings.Contains(strings.ToLower(meta.Fields["keywords"]), term) {
			return false
		}
	}
	return true
}

func statusMatches(status domain.StatusFilter, flag domain.FlagState) bool {
	switch status {
	case domain.StatusFlagged:
		return flag == domain.FlagFlagged
	case domain.StatusRejected:
		return flag == domain.FlagRejected
	case domain.StatusUnflagged:
		return flag == domain.FlagUnflagged || flag == domain.FlagUnknown
	default:
		return true
	}
}
