package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo carries build-time version metadata set via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var buildInfo = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

// SetBuildInfo installs build metadata before Execute.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
}

// versionCmd is the Cobra command for "sockline version".
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("sockline %s (commit %s, built %s)\n",
			buildInfo.Version, buildInfo.Commit, buildInfo.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
