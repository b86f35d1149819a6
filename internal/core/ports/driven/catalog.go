package driven

import (
	"context"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

// Catalog is the driven port for a DAM server session. One implementation
// exists per server product; all of them own their session lifecycle,
// request pacing, and protocol quirks behind this surface.
type Catalog interface {
	// Connect authenticates and prepares the session. Must be called
	// before any other method.
	Connect(ctx context.Context) error

	// IsAuthenticated reports whether a session was established. Local
	// state only; expired sessions surface as errors on the next call.
	IsAuthenticated() bool

	// Logout ends the session. Idempotent.
	Logout(ctx context.Context)

	// Search retrieves the items matching the filters.
	Search(ctx context.Context, f domain.SearchFilters) (*domain.SearchResult, error)

	// FetchMetadata retrieves one item's flattened metadata.
	FetchMetadata(ctx context.Context, id int64) (*domain.ItemMetadata, error)

	// ApplyTags applies tag operations to the given items.
	ApplyTags(ctx context.Context, ids []int64, ops []domain.BatchOperation) error

	// Tags returns the catalog's tag definitions keyed by display name.
	Tags(ctx context.Context) (map[string]domain.TagDefinition, error)

	// TagValues lists a tag's values, optionally filtered by text.
	TagValues(ctx context.Context, tagName, filter string) ([]domain.TagValue, error)

	// Collections lists the catalog's shared collections.
	Collections(ctx context.Context) ([]domain.TagValue, error)

	// SavedSearches lists the catalog's saved searches.
	SavedSearches(ctx context.Context) ([]domain.TagValue, error)

	// Stats summarizes the catalog for connection checks.
	Stats(ctx context.Context) (*domain.CatalogStats, error)

	// ThumbnailURL builds the preview URL for an item.
	ThumbnailURL(id int64, width, height int) string
}
