package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List shared collections",
	Long:  `List the catalog's shared collections with the ids accepted by 'damtag search --collection'.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listRoleValues(cmd, "collections", func(ctx context.Context, catalog driven.Catalog) ([]domain.TagValue, error) {
			return catalog.Collections(ctx)
		})
	},
}

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "List saved searches",
	Long:  `List the catalog's saved searches with the ids accepted by 'damtag search --saved-search'.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listRoleValues(cmd, "saved searches", func(ctx context.Context, catalog driven.Catalog) ([]domain.TagValue, error) {
			return catalog.SavedSearches(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(searchesCmd)
}

func listRoleValues(cmd *cobra.Command, label string, list func(context.Context, driven.Catalog) ([]domain.TagValue, error)) error {
	return withSession(context.Background(), func(catalog driven.Catalog) error {
		values, err := list(context.Background(), catalog)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", label, err)
		}

		if len(values) == 0 {
			cmd.Printf("No %s found.\n", label)
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
