package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var (
	searchScope       string
	searchSavedSearch int64
	searchCollection  int64
	searchStatus      string
	searchMissing     []string
	searchLimit       int
	searchJSON        bool
	searchIDsOnly     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search catalog items",
	Long: `Search the catalog by saved search, shared collection, flag status,
free text, or a combination. A free-text term that exactly matches an
existing keyword is searched as that keyword; combined with a scope it
narrows the scope instead of widening it.

Examples:
  damtag search --saved-search 117
  damtag search --collection 35 --status unflagged
  damtag search "red kite" --status flagged
  damtag search --saved-search 117 --missing Keywords --missing Description`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", "", "search scope: all, saved-search, collection, search")
	searchCmd.Flags().Int64Var(&searchSavedSearch, "saved-search", 0, "saved search id to scope to")
	searchCmd.Flags().Int64Var(&searchCollection, "collection", 0, "shared collection id to scope to")
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "flag status filter: flagged, rejected, unflagged")
	searchCmd.Flags().StringArrayVar(&searchMissing, "missing", nil, "keep only items with this field untagged (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of items to retrieve")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchIDsOnly, "ids", false, "output item ids only, one per line")
	rootCmd.AddCommand(searchCmd)
}

// buildFilters derives the search filters from the command flags and the
// optional free-text argument. The scope is inferred from whichever id or
// term was given unless set explicitly.
func buildFilters(args []string) (domain.SearchFilters, error) {
	f := domain.SearchFilters{
		Scope:         domain.ScopeAll,
		SavedSearchID: searchSavedSearch,
		CollectionID:  searchCollection,
		MissingFields: searchMissing,
		MaxItems:      searchLimit,
	}
	if len(args) > 0 {
		f.Term = args[0]
	}

	switch {
	case searchScope != "":
		scope, err := domain.ParseScope(searchScope)
		if err != nil {
			return f, err
		}
		f.Scope = scope
	case searchSavedSearch != 0:
		f.Scope = domain.ScopeSavedSearch
	case searchCollection != 0:
		f.Scope = domain.ScopeCollection
	case f.Term != "":
		f.Scope = domain.ScopeSearch
	}

	if searchStatus != "" {
		status, err := domain.ParseStatusFilter(searchStatus)
		if err != nil {
			return f, err
		}
		f.Status = status
	}

	return f, f.Validate()
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters, err := buildFilters(args)
	if err != nil {
		return err
	}

	return withSession(context.Background(), func(catalog driven.Catalog) error {
		result, err := catalog.Search(context.Background(), filters)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		switch {
		case searchJSON:
			return outputSearchJSON(cmd, result)
		case searchIDsOnly:
			for _, id := range result.IDs() {
				cmd.Println(id)
			}
			return nil
		default:
			return outputSearchTable(cmd, result)
		}
	})
}

func outputSearchJSON(cmd *cobra.Command, result *domain.SearchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *domain.SearchResult) error {
	if len(result.Items) == 0 {
		cmd.Println("No items found.")
		return nil
	}

	for _, item := range result.Items {
		name := item.Name
		if name == "" {
			name = item.FileName
		}
		cmd.Printf("  %8d  %s\n", item.ID, name)
	}
	cmd.Println()
	cmd.Printf("%d items", result.Retrieved)
	if result.Approximate {
		cmd.Printf(" (total approximate)")
	}
	if result.Truncated {
		cmd.Printf(" (truncated, server reported %d)", result.ReportedTotal)
	}
	cmd.Println()
	return nil
}
