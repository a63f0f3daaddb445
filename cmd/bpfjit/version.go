package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bpfjit/pkg/ppc64"
)

// Build information, overridable with -ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var (
	versionNameColor  = color.New(color.FgYellow, color.Bold)
	versionValueColor = color.New(color.FgGreen)
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and supported targets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", versionNameColor.Sprint("bpfjit"), versionValueColor.Sprint(Version))
		if GitCommit != "" {
			fmt.Fprintf(out, "commit: %s\n", GitCommit)
		}
		if BuildDate != "" {
			fmt.Fprintf(out, "built:  %s\n", BuildDate)
		}
		fmt.Fprintf(out, "go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		for _, t := range []ppc64.Target{ppc64.BigEndian, ppc64.LittleEndian} {
			fmt.Fprintf(out, "target: %-8s %s, %s\n", t.Name, order(t), t.ABI)
		}
	},
}

func order(t ppc64.Target) string {
	if t.IsBigEndian() {
		return "big-endian"
	}
	return "little-endian"
}
