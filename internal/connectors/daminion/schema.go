package daminion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// AllLevels is the parentValueId sentinel meaning "search every level of a
// hierarchical tag".
const AllLevels int64 = -2

// valuesPageSize is the page size used when enumerating tag values.
const valuesPageSize = 500

// Role identifies a tag by its logical function rather than its numeric id.
// Numeric ids for these taxonomies vary per installation, so they are
// discovered by display-name scan at schema load and resolved through the
// cache ever after.
type Role int

const (
	// RoleSavedSearches is the taxonomy holding saved search definitions.
	RoleSavedSearches Role = iota

	// RoleSharedCollections is the taxonomy holding shared collections.
	RoleSharedCollections

	// RoleFlag is the review flag tag.
	RoleFlag

	// RoleKeywords is the keywords tag.
	RoleKeywords

	// RoleCategories is the category/classification tag.
	RoleCategories

	// RoleDescription is the description/caption tag.
	RoleDescription
)

// roleNames maps logical roles to the display names they carry across
// server versions, lower-cased, in preference order.
var roleNames = map[Role][]string{
	RoleSavedSearches:     {"saved searches"},
	RoleSharedCollections: {"shared collections", "collections"},
	RoleFlag:              {"flag"},
	RoleKeywords:          {"keywords"},
	RoleCategories:        {"categories", "category", "subject", "classification"},
	RoleDescription:       {"description", "caption", "headline", "annotation"},
}

// Flag tag value ids are fixed in the protocol even though the Flag tag's
// own id is not.
const (
	flagValueUnflagged int64 = 1
	flagValueFlagged   int64 = 2
	flagValueRejected  int64 = 3
)

// schemaCache fetches the tag taxonomy once per session and serves lookups
// from memory. The load-then-publish transition is synchronized; reads
// after load take the same lock but never touch the network.
type schemaCache struct {
	exec *executor

	mu     sync.Mutex
	loaded bool
	byName map[string]domain.TagDefinition
	byID   map[int64]domain.TagDefinition
	roles  map[Role]domain.TagDefinition
}

func newSchemaCache(exec *executor) *schemaCache {
	return &schemaCache{exec: exec}
}

// tagPayload is the /api/Settings/GetTags entry format.
type tagPayload struct {
	ID      int64  `json:"id"`
	GUID    string `json:"guid"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
}

// load fetches and indexes the tag list. The first caller performs the
// fetch; concurrent callers block until it is published. Safe to call
// repeatedly.
func (s *schemaCache) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	raw, err := s.exec.call(ctx, http.MethodGet, "/api/Settings/GetTags", nil, nil)
	if err != nil {
		return &SchemaLoadError{Err: err}
	}

	entries, _, ok := normalizeList(raw)
	if !ok {
		return &SchemaLoadError{Err: fmt.Errorf("unrecognized tag list response")}
	}

	byName := make(map[string]domain.TagDefinition, len(entries))
	byID := make(map[int64]domain.TagDefinition, len(entries))
	for _, entry := range entries {
		var p tagPayload
		if err := json.Unmarshal(entry, &p); err != nil {
			continue
		}
		if p.Name == "" || p.ID == 0 {
			continue
		}
		def := domain.TagDefinition{
			ID:   p.ID,
			GUID: canonicalGUID(p.GUID),
			Name: p.Name,
			Kind: tagKind(p),
		}
		byName[strings.ToLower(p.Name)] = def
		byID[p.ID] = def
	}

	if len(byID) == 0 {
		return &SchemaLoadError{Err: fmt.Errorf("no tags in schema response")}
	}

	roles := make(map[Role]domain.TagDefinition)
	for role, names := range roleNames {
		for _, name := range names {
			if def, ok := byName[name]; ok {
				roles[role] = def
				break
			}
		}
	}

	s.byName = byName
	s.byID = byID
	s.roles = roles
	s.loaded = true
	logger.Info("daminion: schema loaded: %d tags, %d roles discovered", len(byID), len(roles))
	return nil
}

// invalidate drops the cached schema so the next load re-fetches it. Used
// when the caller suspects server-side schema changes.
func (s *schemaCache) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.byName = nil
	s.byID = nil
	s.roles = nil
}

// tag resolves a display name to its definition, case-insensitively.
func (s *schemaCache) tag(name string) (domain.TagDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

// tagByID resolves a numeric tag id to its definition.
func (s *schemaCache) tagByID(id int64) (domain.TagDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.byID[id]
	return def, ok
}

// role resolves a logical role to its discovered definition.
func (s *schemaCache) role(r Role) (domain.TagDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.roles[r]
	return def, ok
}

// all returns a copy of the name-to-definition mapping.
func (s *schemaCache) all() map[string]domain.TagDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.TagDefinition, len(s.byID))
	for _, def := range s.byID {
		out[def.Name] = def
	}
	return out
}

// valuePayload is the tag value entry format, covering the key variants
// different server versions emit.
type valuePayload struct {
	ID       int64  `json:"id"`
	ValueID  int64  `json:"valueId"`
	Text     string `json:"text"`
	Value    string `json:"value"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	ParentID int64  `json:"parentId"`
	Count    int    `json:"count"`
}

func (p valuePayload) toDomain() domain.TagValue {
	id := p.ID
	if id == 0 {
		id = p.ValueID
	}
	text := p.Text
	for _, alt := range []string{p.Value, p.Name, p.Title} {
		if text != "" {
			break
		}
		text = alt
	}
	return domain.TagValue{ID: id, Text: text, ParentID: p.ParentID, Count: p.Count}
}

// tagValues enumerates the values of an indexed tag, optionally filtered
// by text and restricted to one hierarchy level (AllLevels to search all).
// Pagination at the source is hidden; callers get one logical sequence.
func (s *schemaCache) tagValues(ctx context.Context, tagID int64, filter string, parentID int64) ([]domain.TagValue, error) {
	var all []domain.TagValue
	for pageIndex := 0; ; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		params := url.Values{}
		params.Set("indexedTagId", strconv.FormatInt(tagID, 10))
		params.Set("parentValueId", strconv.FormatInt(parentID, 10))
		params.Set("filter", filter)
		params.Set("pageIndex", strconv.Itoa(pageIndex))
		params.Set("pageSize", strconv.Itoa(valuesPageSize))

		raw, err := s.exec.call(ctx, http.MethodGet, "/api/IndexedTagValues/GetIndexedTagValues", params, nil)
		if err != nil {
			return nil, fmt.Errorf("get tag values: %w", err)
		}

		entries, _, ok := normalizeList(raw)
		if !ok || len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			var p valuePayload
			if err := json.Unmarshal(entry, &p); err != nil {
				continue
			}
			all = append(all, p.toDomain())
		}
		if len(entries) < valuesPageSize {
			break
		}
	}
	return all, nil
}

// findOrCreateValue resolves a text value to its id, creating it only when
// no exact-text match exists. Looking up before creating is a correctness
// invariant: repeated calls with identical text must never produce
// duplicate taxonomy entries.
func (s *schemaCache) findOrCreateValue(ctx context.Context, tagID int64, text string) (int64, error) {
	values, err := s.tagValues(ctx, tagID, text, AllLevels)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		if v.EqualText(text) {
			return v.ID, nil
		}
	}

	def, ok := s.tagByID(tagID)
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrTagNotFound, tagID)
	}

	body := map[string]any{
		"tagGuid": def.GUID,
		"value":   text,
	}
	raw, err := s.exec.call(ctx, http.MethodPost, "/api/IndexedTagValues/CreateValueByGuid", nil, body)
	if err != nil {
		return 0, fmt.Errorf("create tag value: %w", err)
	}
	id, ok := decodeID(raw)
	if !ok {
		return 0, fmt.Errorf("create tag value: unrecognized response")
	}
	logger.Debug("daminion: created value %q (id %d) for tag %q", text, id, def.Name)
	return id, nil
}

// canonicalGUID normalizes a tag GUID to its canonical lowercase form,
// keeping the raw string when it is not a well-formed UUID (older servers
// emit bare identifiers here).
func canonicalGUID(s string) string {
	if id, err := uuid.Parse(s); err == nil {
		return id.String()
	}
	return s
}

// tagKind derives the value kind from the server's type and indexed flags.
func tagKind(p tagPayload) domain.ValueKind {
	if !p.Indexed {
		return domain.KindFreeText
	}
	switch strings.ToLower(p.Type) {
	case "tree", "hierarchical":
		return domain.KindHierarchical
	default:
		return domain.KindIndexed
	}
}

// flagValueFor maps a status filter to the protocol's flag value id.
func flagValueFor(status domain.StatusFilter) (int64, bool) {
	switch status {
	case domain.StatusFlagged:
		return flagValueFlagged, true
	case domain.StatusRejected:
		return flagValueRejected, true
	case domain.StatusUnflagged:
		return flagValueUnflagged, true
	default:
		return 0, false
	}
}
