package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Reindex bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Load principals, listings and stored searches from YAML",
		Long: `Load a YAML data set into the store and make sure the listing index exists.

Records are upserted: re-importing a file overwrites the same keys.
Searches reference principals by id and default to enabled.

Example:
  searchagent import examples/fixture.yaml
  searchagent import --reindex data.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importFixture(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Reindex, "reindex", false, "drop and rebuild the listing index")

	return cmd
}

func importFixture(cmd *cobra.Command, opts *ImportOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read fixture", err)
	}
	f, err := parseFixture(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fixture", err)
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx, opts.RootOptions, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer a.close()

	if opts.Reindex {
		if err := a.listings.Reindex(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to rebuild listing index", err)
		}
	} else if _, err := a.listings.EnsureIndex(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to ensure listing index", err)
	}

	if err := a.principals.UpsertBatch(ctx, f.principals); err != nil {
		return WrapExitError(ExitCommandError, "failed to import principals", err)
	}
	if err := a.listings.UpsertBatch(ctx, f.listings); err != nil {
		return WrapExitError(ExitCommandError, "failed to import listings", err)
	}
	if err := a.searches.SaveBatch(ctx, f.searches); err != nil {
		return WrapExitError(ExitCommandError, "failed to import stored searches", err)
	}

	a.log.Info("Fixture imported",
		zap.String("path", path),
		zap.Int("principals", len(f.principals)),
		zap.Int("listings", len(f.listings)),
		zap.Int("searches", len(f.searches)),
	)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]int{
			"principals": len(f.principals),
			"listings":   len(f.listings),
			"searches":   len(f.searches),
		})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d principals, %d listings, %d stored searches\n",
		len(f.principals), len(f.listings), len(f.searches))
	return nil
}
