package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var itemThumbnail bool

var itemCmd = &cobra.Command{
	Use:   "item [id]",
	Short: "Show an item's metadata",
	Long: `Show all metadata fields of one item, including its flag status.
Empty fields are shown too; they mark where tagging work remains.`,
	Args: cobra.ExactArgs(1),
	RunE: runItem,
}

func init() {
	itemCmd.Flags().BoolVar(&itemThumbnail, "thumbnail", false, "print the item's thumbnail URL")
	rootCmd.AddCommand(itemCmd)
}

func runItem(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid item id %q", args[0])
	}

	return withSession(context.Background(), func(catalog driven.Catalog) error {
		meta, err := catalog.FetchMetadata(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to fetch item: %w", err)
		}

		cmd.Printf("Item %d", meta.ID)
		if meta.Name != "" {
			cmd.Printf(": %s", meta.Name)
		}
		cmd.Println()
		cmd.Printf("  Flag: %s\n", flagLabel(meta.Flag))

		fields := make([]string, 0, len(meta.Fields))
		for name := range meta.Fields {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		for _, name := range fields {
			value := meta.Fields[name]
			if value == "" {
				value = "(empty)"
			}
			cmd.Printf("  %s: %s\n", name, value)
		}

		if itemThumbnail {
			cmd.Printf("  Thumbnail: %s\n", catalog.ThumbnailURL(meta.ID, 256, 256))
		}
		return nil
	})
}

func flagLabel(flag domain.FlagState) string {
	switch flag {
	case domain.FlagFlagged:
		return "flagged"
	case domain.FlagRejected:
		return "rejected"
	case domain.FlagUnflagged:
		return "unflagged"
	default:
		return "unknown"
	}
}
