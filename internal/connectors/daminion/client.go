package daminion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// Ensure Client implements the catalog port.
var _ driven.Catalog = (*Client)(nil)

// Default tuning values, overridable per Config field.
const (
	defaultRequestInterval     = 100 * time.Millisecond
	defaultTimeout             = 30 * time.Second
	defaultPageSize            = 500
	defaultSearchCeiling       = 500
	defaultBruteForceThreshold = 1000
)

// Config holds the connection settings for one Daminion server.
type Config struct {
	// BaseURL is the server root, e.g. "http://dam.example.com:8080".
	// A scheme is required; a trailing slash is stripped.
	BaseURL string

	// Username and Password authenticate the session. The password is
	// held only for the login request and never logged.
	Username string
	Password string

	// CatalogID selects a catalog on multi-catalog servers. Empty uses
	// the server default.
	CatalogID string

	// RequestInterval is the minimum spacing between any two requests.
	RequestInterval time.Duration

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// PageSize is the page size for item retrieval.
	PageSize int

	// SearchCeiling is the expected server-side cap on free-text search
	// results, used to stop paginating early. Zero disables the check.
	SearchCeiling int

	// BruteForceThreshold is the maximum catalog size for which the
	// id-enumeration fallback may run.
	BruteForceThreshold int

	// Retry controls transient-failure retries.
	Retry RetryPolicy
}

func (c *Config) applyDefaults() {
	if c.RequestInterval <= 0 {
		c.RequestInterval = defaultRequestInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.SearchCeiling == 0 {
		c.SearchCeiling = defaultSearchCeiling
	}
	if c.BruteForceThreshold <= 0 {
		c.BruteForceThreshold = defaultBruteForceThreshold
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = DefaultRetryPolicy()
	}
}

// Client is a session-scoped Daminion API client. Safe for concurrent use;
// all requests funnel through one rate-limited executor.
type Client struct {
	cfg    Config
	exec   *executor
	schema *schemaCache

	authenticated bool
}

// New creates a client for the given server. No request is made until
// Connect.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("daminion: server URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("daminion: invalid server URL %q (scheme and host required)", cfg.BaseURL)
	}
	cfg.BaseURL = base
	cfg.applyDefaults()

	exec := newExecutor(cfg.BaseURL, cfg.RequestInterval, cfg.Timeout, cfg.Retry)
	return &Client{
		cfg:    cfg,
		exec:   exec,
		schema: newSchemaCache(exec),
	}, nil
}

// Connect logs in, verifies that a session was established, and loads the
// tag schema. The credentials travel as query parameters per the protocol;
// they are never written to the log.
func (c *Client) Connect(ctx context.Context) error {
	params := url.Values{}
	params.Set("userName", c.cfg.Username)
	params.Set("password", c.cfg.Password)
	if c.cfg.CatalogID != "" {
		params.Set("catalogId", c.cfg.CatalogID)
	}

	logger.Info("daminion: connecting to %s as %s", c.cfg.BaseURL, c.cfg.Username)
	_, err := c.exec.call(ctx, http.MethodPost, "/api/UserManager/Login", params, nil)
	if err != nil {
		if IsUnauthorized(err) || IsForbidden(err) {
			return fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
		}
		return fmt.Errorf("login: %w", err)
	}

	// A login that returns 200 without issuing a session cookie is a
	// rejection in disguise.
	if c.exec.cookieCount() == 0 {
		return fmt.Errorf("%w: %v", domain.ErrAuthFailed, ErrNoSessionCookie)
	}
	c.authenticated = true

	if err := c.schema.load(ctx); err != nil {
		return err
	}
	return nil
}

// IsAuthenticated reports whether a session was established. Purely local;
// an expired server session surfaces as an error on the next call.
func (c *Client) IsAuthenticated() bool {
	return c.authenticated
}

// Logout ends the server session. Idempotent: calling it without a session
// is a no-op, and server-side failures are logged but not returned since
// the local session state is discarded regardless.
func (c *Client) Logout(ctx context.Context) {
	if !c.authenticated {
		return
	}
	if _, err := c.exec.call(ctx, http.MethodGet, "/api/UserManager/Logout", nil, nil); err != nil {
		logger.Debug("daminion: logout request failed: %v", err)
	}
	c.exec.clearCookies()
	c.schema.invalidate()
	c.authenticated = false
}

func (c *Client) requireAuth() error {
	if !c.authenticated {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// Search builds a query from the filters and retrieves all matching items.
func (c *Client) Search(ctx context.Context, f domain.SearchFilters) (*domain.SearchResult, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	q, err := c.BuildQuery(ctx, f)
	if err != nil {
		return nil, err
	}
	return c.FetchAll(ctx, q, f.MaxItems)
}

// Tags returns the catalog's tag definitions keyed by display name.
func (c *Client) Tags(ctx context.Context) (map[string]domain.TagDefinition, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if err := c.schema.load(ctx); err != nil {
		return nil, err
	}
	return c.schema.all(), nil
}

// Tag resolves one tag by display name.
func (c *Client) Tag(ctx context.Context, name string) (domain.TagDefinition, error) {
	if err := c.requireAuth(); err != nil {
		return domain.TagDefinition{}, err
	}
	if err := c.schema.load(ctx); err != nil {
		return domain.TagDefinition{}, err
	}
	def, ok := c.schema.tag(name)
	if !ok {
		return domain.TagDefinition{}, fmt.Errorf("%w: %q", ErrTagNotFound, name)
	}
	return def, nil
}

// TagValues lists a tag's values, optionally filtered by text.
func (c *Client) TagValues(ctx context.Context, tagName, filter string) ([]domain.TagValue, error) {
	def, err := c.Tag(ctx, tagName)
	if err != nil {
		return nil, err
	}
	return c.schema.tagValues(ctx, def.ID, filter, AllLevels)
}

// FindOrCreateValue resolves a value text to its id within a tag, creating
// the value when absent.
func (c *Client) FindOrCreateValue(ctx context.Context, tagName, text string) (int64, error) {
	def, err := c.Tag(ctx, tagName)
	if err != nil {
		return 0, err
	}
	return c.schema.findOrCreateValue(ctx, def.ID, text)
}

// ReloadSchema drops the cached tag schema and fetches it again.
func (c *Client) ReloadSchema(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	c.schema.invalidate()
	return c.schema.load(ctx)
}

// Collections lists the catalog's shared collections.
func (c *Client) Collections(ctx context.Context) ([]domain.TagValue, error) {
	return c.roleValues(ctx, RoleSharedCollections, "shared collections")
}

// SavedSearches lists the catalog's saved searches.
func (c *Client) SavedSearches(ctx context.Context) ([]domain.TagValue, error) {
	return c.roleValues(ctx, RoleSavedSearches, "saved searches")
}

func (c *Client) roleValues(ctx context.Context, role Role, label string) ([]domain.TagValue, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if err := c.schema.load(ctx); err != nil {
		return nil, err
	}
	def, ok := c.schema.role(role)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, label)
	}
	return c.schema.tagValues(ctx, def.ID, "", AllLevels)
}

// Stats summarizes the catalog for connection checks.
func (c *Client) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	total, err := c.CatalogTotal(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.CatalogStats{TotalItems: total}

	if cols, err := c.Collections(ctx); err == nil {
		stats.Collections = len(cols)
	}
	if searches, err := c.SavedSearches(ctx); err == nil {
		stats.SavedSearches = len(searches)
	}
	return stats, nil
}

// CollectionDetails returns a shared collection's access code and size.
func (c *Client) CollectionDetails(ctx context.Context, id int64) (code string, itemCount int, err error) {
	if err := c.requireAuth(); err != nil {
		return "", 0, err
	}

	raw, err := c.exec.call(ctx, http.MethodGet,
		"/api/SharedCollection/GetDetails/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return "", 0, fmt.Errorf("collection details: %w", err)
	}

	var details struct {
		Code      string `json:"code"`
		ItemCount int    `json:"itemCount"`
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return "", 0, fmt.Errorf("collection details: %w", err)
	}
	return details.Code, details.ItemCount, nil
}
