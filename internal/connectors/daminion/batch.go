package daminion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// writeBatchSize caps how many items one BatchChange request may address.
// Large id lists make the server time out; sub-batching keeps each request
// bounded while preserving the caller's single logical operation.
const writeBatchSize = 50

// changeEntry is one tag assignment in the BatchChange payload. Indexed
// and hierarchical tags carry the resolved value id; free-text tags carry
// the raw text.
type changeEntry struct {
	GUID   string `json:"guid"`
	Value  string `json:"value"`
	ID     int64  `json:"id,omitempty"`
	Remove bool   `json:"remove"`
}

// batchChangeRequest is the /api/ItemData/BatchChange payload.
type batchChangeRequest struct {
	IDs    []int64       `json:"ids"`
	Delete bool          `json:"delete"`
	Data   []changeEntry `json:"data"`
}

// ApplyTags applies a set of tag operations to the given items. Value
// resolution happens once up front: indexed values are found or created
// before any item is touched, so a failed resolution aborts the whole
// operation with nothing written. The write itself is split into
// sub-batches; a sub-batch failure reports which items were not written.
func (c *Client) ApplyTags(ctx context.Context, ids []int64, ops []domain.BatchOperation) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(ids) == 0 || len(ops) == 0 {
		return nil
	}
	if err := c.schema.load(ctx); err != nil {
		return err
	}

	entries, err := c.resolveOperations(ctx, ops)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += writeBatchSize {
		if err := ctx.Err(); err != nil {
			return &BatchWriteError{Items: len(ids) - start, Err: err}
		}

		end := start + writeBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if err := c.writeBatch(ctx, batch, entries); err != nil {
			return &BatchWriteError{Items: len(ids) - start, Err: err}
		}
		logger.Debug("daminion: wrote %d tag changes to items %d-%d of %d",
			len(entries), start+1, end, len(ids))
	}
	return nil
}

// resolveOperations turns tag-name/value-text operations into wire entries,
// resolving indexed values through the schema cache.
func (c *Client) resolveOperations(ctx context.Context, ops []domain.BatchOperation) ([]changeEntry, error) {
	entries := make([]changeEntry, 0, len(ops))
	for _, op := range ops {
		def, ok := c.schema.tag(op.Tag)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTagNotFound, op.Tag)
		}

		entry := changeEntry{GUID: def.GUID, Remove: op.Remove}
		switch def.Kind {
		case domain.KindFreeText:
			entry.Value = op.Value
		default:
			valueID := op.ValueID
			if valueID == 0 {
				var err error
				valueID, err = c.schema.findOrCreateValue(ctx, def.ID, op.Value)
				if err != nil {
					return nil, fmt.Errorf("resolve %q value %q: %w", op.Tag, op.Value, err)
				}
			}
			entry.ID = valueID
			entry.Value = op.Value
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// writeBatch sends one BatchChange request and interprets the server's
// success envelope variants.
func (c *Client) writeBatch(ctx context.Context, ids []int64, entries []changeEntry) error {
	body := batchChangeRequest{IDs: ids, Delete: false, Data: entries}
	raw, err := c.exec.call(ctx, http.MethodPost, "/api/ItemData/BatchChange", nil, body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	var status struct {
		Success   *bool  `json:"success"`
		Error     string `json:"error"`
		ErrorCode int    `json:"errorCode"`
		Data      *bool  `json:"data"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		// Non-envelope response bodies are treated as success; the server
		// already returned 2xx.
		return nil
	}
	if status.Success != nil && !*status.Success {
		msg := status.Error
		if msg == "" {
			msg = fmt.Sprintf("server rejected batch (code %d)", status.ErrorCode)
		}
		return fmt.Errorf("%s", msg)
	}
	if status.Data != nil && !*status.Data {
		return fmt.Errorf("server rejected batch")
	}
	return nil
}
