// Package cli implements the damtag command-line interface using cobra.
// Commands read connection settings from the config store, open a catalog
// session for the duration of one invocation, and log out on exit.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/damtag-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/damtag-cli/internal/connectors/daminion"
	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag bool
	configDir   string
)

var configStore driven.ConfigStore

var rootCmd = &cobra.Command{
	Use:   "damtag",
	Short: "Tag and search media items in a Daminion catalog",
	Long: `damtag connects to a Daminion server, searches its catalog by saved
search, shared collection, flag status, or free text, and applies tag
changes to the matching items in batches.

Run 'damtag connect' first to store the server settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("failed to open config: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.damtag)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// catalogFactory builds a catalog session from stored settings. Replaced in
// tests.
var catalogFactory = defaultCatalogFactory

func defaultCatalogFactory() (driven.Catalog, error) {
	server := configStore.GetString("server.url")
	if server == "" {
		return nil, errors.New("no server configured, run 'damtag connect' first")
	}

	cfg := daminion.Config{
		BaseURL:   server,
		Username:  configStore.GetString("server.username"),
		Password:  configStore.GetString("server.password"),
		CatalogID: configStore.GetString("server.catalog"),
	}
	if ms := configStore.GetInt("client.request_interval_ms"); ms > 0 {
		cfg.RequestInterval = time.Duration(ms) * time.Millisecond
	}
	if n := configStore.GetInt("client.page_size"); n > 0 {
		cfg.PageSize = n
	}
	if n, ok := configStore.Get("client.search_ceiling"); ok {
		if ceiling, isInt := n.(int64); isInt {
			cfg.SearchCeiling = int(ceiling)
		}
	}
	if n := configStore.GetInt("client.brute_force_threshold"); n > 0 {
		cfg.BruteForceThreshold = n
	}
	return daminion.New(cfg)
}

// withSession opens a catalog session, runs fn, and logs out afterwards.
func withSession(ctx context.Context, fn func(driven.Catalog) error) error {
	catalog, err := catalogFactory()
	if err != nil {
		return err
	}
	if err := catalog.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer catalog.Logout(ctx)
	return fn(catalog)
}

// Input helpers.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
