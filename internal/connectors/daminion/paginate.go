package daminion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

const (
	// bruteForceBatch is the id-range batch size for the brute-force scan.
	bruteForceBatch = 100

	// bruteForceSlack extends the scan past the reported catalog size to
	// cover id gaps (ids are sequential but not dense).
	bruteForceSlack = 100
)

// FetchAll drives paginated retrieval for a built query, compensating for
// the server's known anomalies:
//
//  1. Free-text searches silently cap the retrievable set (observed at
//     500 items): a page beyond the cap returns zero items even though the
//     reported total is larger. Detected and flagged as truncated instead
//     of looping.
//  2. The count endpoint may report the full catalog size for free-text
//     predicates, so free-text totals are marked approximate and derived
//     from what was actually retrieved.
//
// Structured queries that report a nonzero count but return zero items
// fall back to the alternate clause syntax, then (for collections) to
// public retrieval by access code, then to a brute-force scan gated by
// catalog size.
//
// Cancellation is checked between pages; on cancellation the accumulated
// partial result is returned alongside ctx.Err().
func (c *Client) FetchAll(ctx context.Context, q *Query, maxItems int) (*domain.SearchResult, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	var (
		result *domain.SearchResult
		err    error
	)
	if q.Term != "" {
		result, err = c.fetchFreeText(ctx, q, maxItems)
	} else {
		result, err = c.fetchStructured(ctx, q, maxItems)
	}
	if err != nil {
		return result, err
	}

	if q.needsLocalFilter() {
		if err := c.applyPostFilter(ctx, q, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// fetchStructured pages through a structured query's results.
func (c *Client) fetchStructured(ctx context.Context, q *Query, maxItems int) (*domain.SearchResult, error) {
	result := &domain.SearchResult{}

	reported, err := c.countStructured(ctx, q)
	if err != nil {
		logger.Debug("daminion: count failed, continuing without it: %v", err)
		reported = 0
	}
	result.ReportedTotal = reported

	syntax := syntaxComma
	triedColon := false
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			result.Retrieved = len(result.Items)
			return result, err
		}

		page, pageTotal, err := c.fetchItemPage(ctx, q, syntax, index, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if result.ReportedTotal == 0 && pageTotal > 0 {
			result.ReportedTotal = pageTotal
		}

		if len(page) == 0 {
			if len(result.Items) == 0 && result.ReportedTotal > 0 {
				done, err := c.repairEmptyResult(ctx, q, result, maxItems, &syntax, &triedColon)
				if err != nil {
					return result, err
				}
				if !done {
					index = 0
					continue
				}
			} else if len(result.Items) < result.ReportedTotal {
				// Zero items with cursor short of the reported total:
				// pagination ceiling. Stop instead of looping.
				result.Truncated = true
			}
			break
		}

		result.Items = append(result.Items, page...)
		index += c.cfg.PageSize

		if maxItems > 0 && len(result.Items) >= maxItems {
			result.Items = result.Items[:maxItems]
			break
		}
		if result.ReportedTotal > 0 && len(result.Items) >= result.ReportedTotal {
			break
		}
	}

	result.Retrieved = len(result.Items)
	return result, nil
}

// repairEmptyResult handles the zero-items-despite-nonzero-count anomaly
// for structured queries. Returns done=false when the caller should retry
// pagination (alternate syntax selected), done=true when the result has
// been repaired (possibly still empty) and pagination should stop.
func (c *Client) repairEmptyResult(
	ctx context.Context, q *Query, result *domain.SearchResult,
	maxItems int, syntax *querySyntax, triedColon *bool,
) (bool, error) {
	// Version-specific syntax rejection: retry the whole query with
	// colon-separated clauses before anything more drastic.
	if !*triedColon && !q.Structured.Empty() {
		*triedColon = true
		*syntax = syntaxColon
		logger.Debug("daminion: zero items for reported count %d, retrying with colon syntax", result.ReportedTotal)
		return false, nil
	}

	if q.Scope == domain.ScopeCollection {
		items, ok, err := c.publicCollectionItems(ctx, q.CollectionID, maxItems)
		if err != nil {
			logger.Warn("daminion: public collection fallback failed: %v", err)
		} else if ok {
			logger.Info("daminion: retrieved %d items via collection access code", len(items))
			result.Items = items
			return true, nil
		}
	}

	items, ok, err := c.bruteForceScan(ctx, q, maxItems)
	if err != nil {
		return true, err
	}
	if ok {
		result.Items = items
	}
	// A fallback finding nothing is an empty result, not an error.
	return true, nil
}

// fetchFreeText pages through free-text search results. The count endpoint
// is not trusted for this query type; the effective count is whatever was
// actually retrieved, surfaced as approximate.
func (c *Client) fetchFreeText(ctx context.Context, q *Query, maxItems int) (*domain.SearchResult, error) {
	result := &domain.SearchResult{Approximate: true}

	ceiling := c.cfg.SearchCeiling
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			result.Retrieved = len(result.Items)
			return result, err
		}

		page, pageTotal, err := c.fetchItemPage(ctx, q, syntaxComma, index, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if result.ReportedTotal == 0 && pageTotal > 0 {
			result.ReportedTotal = pageTotal
		}

		if len(page) == 0 {
			if len(result.Items) > 0 && len(result.Items) < result.ReportedTotal {
				// The free-text ceiling: cursor still short of the
				// reported total but the server has stopped returning
				// items.
				logger.Warn("daminion: free-text search truncated at %d of reported %d items",
					len(result.Items), result.ReportedTotal)
				result.Truncated = true
			}
			break
		}

		result.Items = append(result.Items, page...)
		index += c.cfg.PageSize

		if maxItems > 0 && len(result.Items) >= maxItems {
			result.Items = result.Items[:maxItems]
			break
		}
		if ceiling > 0 && len(result.Items) >= ceiling && result.ReportedTotal > len(result.Items) {
			result.Truncated = true
			break
		}
		if result.ReportedTotal > 0 && len(result.Items) >= result.ReportedTotal {
			break
		}
	}

	result.Retrieved = len(result.Items)
	return result, nil
}

// fetchItemPage requests one page of items. Structured queries send
// queryLine and operators; free-text queries send the legacy search
// parameters. All values go through url.Values so reserved characters are
// percent-encoded.
func (c *Client) fetchItemPage(ctx context.Context, q *Query, syntax querySyntax, index, size int) ([]domain.Item, int, error) {
	params := url.Values{}
	if q.Term != "" {
		params.Set("search", q.Term)
		params.Set("start", strconv.Itoa(index))
		params.Set("length", strconv.Itoa(size))
	} else {
		if line := q.queryLine(syntax); line != "" {
			params.Set("queryLine", line)
			params.Set("f", q.operatorLine())
		}
		params.Set("index", strconv.Itoa(index))
		params.Set("size", strconv.Itoa(size))
	}

	raw, err := c.exec.call(ctx, http.MethodGet, "/api/MediaItems/Get", params, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page: %w", err)
	}

	entries, total, _ := normalizeList(raw)
	return decodeItems(entries), total, nil
}

// countStructured asks the server for the matching item count, trying the
// query-line form first and degrading to the legacy search form, then to a
// single-item page, for older servers.
func (c *Client) countStructured(ctx context.Context, q *Query) (int, error) {
	line := q.queryLine(syntaxComma)

	params := url.Values{}
	if line != "" {
		params.Set("queryLine", line)
		params.Set("f", q.operatorLine())
	}
	params.Set("force", "false")
	raw, err := c.exec.call(ctx, http.MethodGet, "/api/MediaItems/GetCount", params, nil)
	if err == nil {
		if n, ok := decodeCount(raw); ok {
			return n, nil
		}
	}

	if line != "" {
		params = url.Values{}
		params.Set("search", line)
		raw, err = c.exec.call(ctx, http.MethodGet, "/api/MediaItems/GetCount", params, nil)
		if err == nil {
			if n, ok := decodeCount(raw); ok {
				return n, nil
			}
		}
	}

	_, total, err := c.fetchItemPage(ctx, q, syntaxComma, 0, 1)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// CatalogTotal returns the total number of items in the catalog.
func (c *Client) CatalogTotal(ctx context.Context) (int, error) {
	raw, err := c.exec.call(ctx, http.MethodGet, "/api/MediaItems/GetCount", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog total: %w", err)
	}
	n, ok := decodeCount(raw)
	if !ok {
		return 0, fmt.Errorf("catalog total: unrecognized response")
	}
	return n, nil
}

// bruteForceScan enumerates item ids directly and filters them locally
// against the query predicate. Strictly gated by catalog size: running
// this against a large catalog would generate unbounded request volume,
// so ok=false is returned without scanning when the catalog exceeds the
// threshold.
func (c *Client) bruteForceScan(ctx context.Context, q *Query, maxItems int) ([]domain.Item, bool, error) {
	total, err := c.CatalogTotal(ctx)
	if err != nil {
		return nil, false, err
	}
	if total <= 0 || total >= c.cfg.BruteForceThreshold {
		logger.Debug("daminion: brute-force scan skipped, catalog size %d exceeds threshold %d",
			total, c.cfg.BruteForceThreshold)
		return nil, false, nil
	}

	logger.Info("daminion: brute-force scanning %d catalog items", total)
	var matched []domain.Item
	for startID := int64(1); startID <= int64(total+bruteForceSlack); startID += bruteForceBatch {
		if err := ctx.Err(); err != nil {
			return matched, true, err
		}

		ids := make([]int64, 0, bruteForceBatch)
		for id := startID; id < startID+bruteForceBatch && id <= int64(total+bruteForceSlack); id++ {
			ids = append(ids, id)
		}

		items, err := c.itemsByIDs(ctx, ids)
		if err != nil {
			return matched, true, err
		}
		for _, item := range items {
			meta, err := c.FetchMetadata(ctx, item.ID)
			if err != nil {
				continue
			}
			if q.matchesBruteForce(meta) {
				matched = append(matched, item)
				if maxItems > 0 && len(matched) >= maxItems {
					return matched, true, nil
				}
			}
		}
	}
	return matched, true, nil
}

// publicCollectionItems retrieves a shared collection's items through the
// unauthenticated public path using its access code. ok=false when the
// collection has no access code.
func (c *Client) publicCollectionItems(ctx context.Context, collectionID int64, maxItems int) ([]domain.Item, bool, error) {
	raw, err := c.exec.call(ctx, http.MethodGet,
		"/api/SharedCollection/GetDetails/"+strconv.FormatInt(collectionID, 10), nil, nil)
	if err != nil {
		return nil, false, fmt.Errorf("collection details: %w", err)
	}

	var details struct {
		Code      string `json:"code"`
		ItemCount int    `json:"itemCount"`
	}
	if err := json.Unmarshal(raw, &details); err != nil || details.Code == "" {
		return nil, false, nil
	}

	var all []domain.Item
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return all, true, err
		}

		params := url.Values{}
		params.Set("code", details.Code)
		params.Set("index", strconv.Itoa(index))
		params.Set("size", strconv.Itoa(c.cfg.PageSize))
		raw, err := c.exec.call(ctx, http.MethodGet, "/api/SharedCollection/PublicItems", params, nil)
		if err != nil {
			return all, true, fmt.Errorf("public items: %w", err)
		}

		entries, _, _ := normalizeList(raw)
		page := decodeItems(entries)
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		index += c.cfg.PageSize

		if maxItems > 0 && len(all) >= maxItems {
			all = all[:maxItems]
			break
		}
	}
	return all, len(all) > 0, nil
}

// applyPostFilter fetches metadata for each retrieved item and drops those
// failing the client-side predicates (missing-field constraint, status
// when the Flag tag was not discovered).
func (c *Client) applyPostFilter(ctx context.Context, q *Query, result *domain.SearchResult) error {
	kept := result.Items[:0]
	for _, item := range result.Items {
		if err := ctx.Err(); err != nil {
			result.Items = kept
			result.Retrieved = len(kept)
			return err
		}
		meta, err := c.FetchMetadata(ctx, item.ID)
		if err != nil {
			logger.Debug("daminion: metadata fetch for item %d failed during filtering: %v", item.ID, err)
			continue
		}
		if q.matchesPostFilter(meta) {
			kept = append(kept, item)
		}
	}
	result.Items = kept
	result.Retrieved = len(kept)
	return nil
}
