// sockline CLI - websocket channel client.
package main

import (
	"fmt"
	"os"

	"github.com/sockline/sockline/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
