package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lexi version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		short, _ := cmd.Flags().GetBool("short")
		v, rev := buildVersion()
		if short || rev == "" {
			fmt.Fprintln(out, "lexi", v)
			return
		}
		fmt.Fprintf(out, "lexi %s (%s)\n", v, rev)
	},
}

// buildVersion prefers the ldflags value, then the module version recorded
// by `go install`, and returns the VCS revision when the binary has one.
func buildVersion() (v, rev string) {
	v = version
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v, ""
	}
	if v == "(devel)" && info.Main.Version != "" {
		v = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			rev = s.Value[:12]
		}
	}
	return v, rev
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
}
