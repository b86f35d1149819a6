package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the catalog's tag schema",
	Long: `List the tags defined in the catalog with their ids, kinds, and GUIDs.
Tag ids differ between installations; use this command to see what the
connected catalog actually defines.`,
	RunE: runTags,
}

var valuesFilter string

var valuesCmd = &cobra.Command{
	Use:   "values [tag]",
	Short: "List the values of a tag",
	Long: `List the values of an indexed tag, across all hierarchy levels.

Examples:
  damtag values Keywords
  damtag values Categories --filter bird`,
	Args: cobra.ExactArgs(1),
	RunE: runValues,
}

func init() {
	valuesCmd.Flags().StringVar(&valuesFilter, "filter", "", "only values containing this text")
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(valuesCmd)
}

func runTags(cmd *cobra.Command, _ []string) error {
	return withSession(context.Background(), func(catalog driven.Catalog) error {
		tags, err := catalog.Tags(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}

		names := make([]string, 0, len(tags))
		for name := range tags {
			names = append(names, name)
		}
		sort.Strings(names)

		cmd.Printf("%-6s %-28s %-13s %s\n", "ID", "NAME", "KIND", "GUID")
		for _, name := range names {
			def := tags[name]
			cmd.Printf("%-6d %-28s %-13s %s\n", def.ID, def.Name, def.Kind, def.GUID)
		}
		return nil
	})
}

func runValues(cmd *cobra.Command, args []string) error {
	return withSession(context.Background(), func(catalog driven.Catalog) error {
		values, err := catalog.TagValues(context.Background(), args[0], valuesFilter)
		if err != nil {
			return fmt.Errorf("failed to list values: %w", err)
		}

		if len(values) == 0 {
			cmd.Println("No values found.")
			return nil
		}
		for _, v := range values {
			if v.Count > 0 {
				cmd.Printf("  %8d  %s (%d items)\n", v.ID, v.Text, v.Count)
			} else {
				cmd.Printf("  %8d  %s\n", v.ID, v.Text)
			}
		}
		return nil
	})
}
