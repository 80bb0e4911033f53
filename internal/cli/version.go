package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchagent/internal/version"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version: version.Version,
				Commit:  version.Commit,
				Date:    version.Date,
				Go:      runtime.Version(),
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "searchagent %s (commit %s, built %s, %s)\n",
				info.Version, info.Commit, info.Date, info.Go)
			return err
		},
	}
}
