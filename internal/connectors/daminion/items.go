package daminion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

// itemPayload covers the media item key variants across server versions.
type itemPayload struct {
	ID       int64  `json:"id"`
	MediaID  int64  `json:"mediaItemId"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
}

func (p itemPayload) toDomain() domain.Item {
	id := p.ID
	if id == 0 {
		id = p.MediaID
	}
	name := p.Name
	if name == "" {
		name = p.Title
	}
	return domain.Item{ID: id, Name: name, FileName: p.FileName}
}

// decodeItems decodes a normalized entry list into items, skipping
// malformed or id-less entries.
func decodeItems(entries []json.RawMessage) []domain.Item {
	items := make([]domain.Item, 0, len(entries))
	for _, entry := range entries {
		var p itemPayload
		if err := json.Unmarshal(entry, &p); err != nil {
			continue
		}
		item := p.toDomain()
		if item.ID == 0 {
			continue
		}
		items = append(items, item)
	}
	return items
}

// itemsByIDs fetches media items by explicit id list.
func (c *Client) itemsByIDs(ctx context.Context, ids []int64) ([]domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("ids", strings.Join(parts, ","))

	raw, err := c.exec.call(ctx, http.MethodGet, "/api/MediaItems/GetByIds", params, nil)
	if err != nil {
		return nil, fmt.Errorf("items by ids: %w", err)
	}

	entries, _, _ := normalizeList(raw)
	return decodeItems(entries), nil
}

// itemDataPayload is the nested per-item metadata format: property groups,
// each holding named properties with a display value and a value list.
type itemDataPayload struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Title      string          `json:"title"`
	Properties []propertyGroup `json:"properties"`
}

type propertyGroup struct {
	PropertyName  string            `json:"propertyName"`
	PropertyValue string            `json:"propertyValue"`
	Values        []json.RawMessage `json:"values"`
	Properties    []propertyGroup   `json:"properties"`
}

// FetchMetadata retrieves one item's full metadata and flattens the nested
// property structure into a name-to-value map with lower-cased keys.
func (c *Client) FetchMetadata(ctx context.Context, id int64) (*domain.ItemMetadata, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	raw, err := c.exec.call(ctx, http.MethodGet, "/api/ItemData/Get", params, nil)
	if err != nil {
		return nil, fmt.Errorf("item %d metadata: %w", id, err)
	}

	var payload itemDataPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("item %d metadata: %w", id, err)
	}
	if payload.ID == 0 && len(payload.Properties) == 0 {
		// Some versions wrap the payload under data.
		var wrapper struct {
			Data itemDataPayload `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil {
			payload = wrapper.Data
		}
	}

	meta := domain.NewItemMetadata(id)
	if payload.ID != 0 {
		meta.ID = payload.ID
	}
	meta.Name = payload.Name
	if meta.Name == "" {
		meta.Name = payload.Title
	}
	flattenProperties(payload.Properties, meta)
	return meta, nil
}

// flattenProperties walks the property tree, recording each named property
// and deriving the review flag state. A Flag property with an empty value
// list is the server's encoding of "unflagged".
func flattenProperties(groups []propertyGroup, meta *domain.ItemMetadata) {
	for _, g := range groups {
		if g.PropertyName != "" {
			meta.SetField(g.PropertyName, g.PropertyValue)
			if strings.EqualFold(g.PropertyName, "flag") {
				meta.Flag = flagFromProperty(g)
			}
		}
		if len(g.Properties) > 0 {
			flattenProperties(g.Properties, meta)
		}
	}
}

func flagFromProperty(g propertyGroup) domain.FlagState {
	if len(g.Values) == 0 && strings.TrimSpace(g.PropertyValue) == "" {
		return domain.FlagUnflagged
	}
	value := strings.ToLower(g.PropertyValue)
	switch {
	case strings.Contains(value, "reject"):
		return domain.FlagRejected
	case strings.Contains(value, "unflag"):
		return domain.FlagUnflagged
	case value != "" || len(g.Values) > 0:
		return domain.FlagFlagged
	default:
		return domain.FlagUnknown
	}
}

// ThumbnailURL builds the preview URL for an item at the given dimensions.
// No request is made; the URL is served by the same authenticated session.
func (c *Client) ThumbnailURL(id int64, width, height int) string {
	params := url.Values{}
	params.Set("width", strconv.Itoa(width))
	params.Set("height", strconv.Itoa(height))
	return c.cfg.BaseURL + "/api/Thumbnail/Get/" + strconv.FormatInt(id, 10) + "?" + params.Encode()
}
