package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/damtag-cli/internal/core/ports/driven"
)

var (
	connectServer   string
	connectUser     string
	connectPassword string
	connectCatalog  string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Configure and verify the server connection",
	Long: `Store the server settings and verify them by logging in.

The password can be passed with --password or entered interactively
(recommended, it avoids leaving the password in shell history).

Examples:
  damtag connect --server http://dam.example.com:8080 --user admin
  damtag connect --server http://dam.example.com:8080 --user admin --catalog 2`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectServer, "server", "", "server URL, e.g. http://dam.example.com:8080")
	connectCmd.Flags().StringVar(&connectUser, "user", "", "user name")
	connectCmd.Flags().StringVar(&connectPassword, "password", "", "password (prompted if omitted)")
	connectCmd.Flags().StringVar(&connectCatalog, "catalog", "", "catalog id on multi-catalog servers")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	server := connectServer
	if server == "" {
		server = configStore.GetString("server.url")
	}
	if server == "" {
		cmd.Print("Server URL: ")
		server = readLine(reader)
	}
	if server == "" {
		return errors.New("server URL is required")
	}

	user := connectUser
	if user == "" {
		user = configStore.GetString("server.username")
	}
	if user == "" {
		cmd.Print("User name: ")
		user = readLine(reader)
	}
	if user == "" {
		return errors.New("user name is required")
	}

	password := connectPassword
	if password == "" {
		cmd.Print("Password: ")
		password = readPassword()
		cmd.Println()
	}
	if password == "" {
		return errors.New("password is required")
	}

	if err := configStore.Set("server.url", server); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	_ = configStore.Set("server.username", user)
	_ = configStore.Set("server.password", password)
	_ = configStore.Set("server.catalog", connectCatalog)

	cmd.Print("Connecting... ")
	err := withSession(context.Background(), func(catalog driven.Catalog) error {
		stats, err := catalog.Stats(context.Background())
		if err != nil {
			return err
		}
		cmd.Println("OK")
		cmd.Println()
		cmd.Printf("Catalog:        %d items\n", stats.TotalItems)
		cmd.Printf("Collections:    %d\n", stats.Collections)
		cmd.Printf("Saved searches: %d\n", stats.SavedSearches)
		return nil
	})
	if err != nil {
		cmd.Println("FAILED")
		return err
	}

	cmd.Println()
	cmd.Printf("Settings saved to %s\n", configStore.Path())
	return nil
}
