// damtag is a command-line client for tagging media items in a Daminion
// digital asset management catalog.
package main

import (
	"os"

	"github.com/custodia-labs/damtag-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
