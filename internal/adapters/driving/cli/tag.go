package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var (
	tagItems  []string
	tagSet    []string
	tagRemove []string
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Apply tag changes to items",
	Long: `Apply tag assignments or removals to a set of items in one batch.
Assignments are written as "Tag=Value". Values of indexed tags are
created in the catalog when they do not exist yet; repeating a value
never creates a duplicate.

Examples:
  damtag tag --items 101,102,103 --set "Keywords=red kite"
  damtag tag --items 101 --set "Flag=Flagged" --remove "Keywords=draft"`,
	RunE: runTag,
}

func init() {
	tagCmd.Flags().StringSliceVar(&tagItems, "items", nil, "item ids, comma-separated (repeatable)")
	tagCmd.Flags().StringArrayVar(&tagSet, "set", nil, "tag assignment as Tag=Value (repeatable)")
	tagCmd.Flags().StringArrayVar(&tagRemove, "remove", nil, "tag removal as Tag=Value (repeatable)")
	rootCmd.AddCommand(tagCmd)
}

// parseItemIDs parses the --items values into ids.
func parseItemIDs(specs []string) ([]int64, error) {
	var ids []int64
	for _, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid item id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseOperations parses --set and --remove values into batch operations.
func parseOperations(set, remove []string) ([]domain.BatchOperation, error) {
	var ops []domain.BatchOperation
	for _, group := range []struct {
		specs  []string
		remove bool
	}{
		{set, false},
		{remove, true},
	} {
		for _, spec := range group.specs {
			tag, value, found := strings.Cut(spec, "=")
			tag = strings.TrimSpace(tag)
			value = strings.TrimSpace(value)
			if !found || tag == "" || value == "" {
				return nil, fmt.Errorf("invalid assignment %q, expected Tag=Value", spec)
			}
			ops = append(ops, domain.BatchOperation{Tag: tag, Value: value, Remove: group.remove})
		}
	}
	return ops, nil
}

func runTag(cmd *cobra.Command, _ []string) error {
	ids, err := parseItemIDs(tagItems)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no items given, use --items")
	}

	ops, err := parseOperations(tagSet, tagRemove)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return errors.New("no changes given, use --set or --remove")
	}

	return withSession(context.Background(), func(catalog driven.Catalog) error {
		if err := catalog.ApplyTags(context.Background(), ids, ops); err != nil {
			return fmt.Errorf("tagging failed: %w", err)
		}
		cmd.Printf("Applied %d change(s) to %d item(s).\n", len(ops), len(ids))
		return nil
	})
}
