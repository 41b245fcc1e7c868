package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/pricing"
	"github.com/townecodex/codex/internal/store"
)

// RepriceOptions holds flags for the reprice command.
type RepriceOptions struct {
	*RootOptions
	Chart string
	Force bool
}

// NewRepriceCommand creates the reprice command.
func NewRepriceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RepriceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reprice",
		Short: "Recompute chart prices for catalog entries",
		Long: `Recompute entry values from the price chart.

User-set prices (updated via manual pricing) are preserved unless
--force is given.

Example:
  codex reprice --db ./codex.db
  codex reprice --db ./codex.db --chart prices.yaml --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReprice(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chart, "chart", "", "YAML price chart overriding the built-in table")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "also overwrite user-set prices")

	return cmd
}

// repriceResult is the JSON payload for a reprice run.
type repriceResult struct {
	Updated int `json:"updated"`
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`
}

func runReprice(opts *RepriceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	chart, err := loadChart(opts.Chart)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load price chart", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := repriceAll(cmd.Context(), st, chart, opts.Force)
	if err != nil {
		return WrapExitError(ExitCommandError, "reprice failed", err)
	}

	text := fmt.Sprintf("Repriced %d entries (%d user prices kept, %d without chart tier)",
		result.Updated, result.Kept, result.Skipped)
	return formatter.SuccessText(text+"\n", result)
}

// repriceAll walks the catalog page by page and rewrites chart prices.
func repriceAll(ctx context.Context, st *store.Store, chart pricing.Chart, force bool) (repriceResult, error) {
	const pageSize = 200
	var result repriceResult

	for page := 1; ; page++ {
		entries, err := st.SearchEntries(ctx, store.EntryFilters{}, page, pageSize, "id")
		if err != nil {
			return result, err
		}
		if len(entries) == 0 {
			return result, nil
		}

		for _, entry := range entries {
			if entry.ValueUpdated && !force {
				result.Kept++
				continue
			}
			price, ok := chart.ForItem(entry)
			if !ok {
				result.Skipped++
				continue
			}
			if err := st.SetChartPrice(ctx, entry.ID, price); err != nil {
				return result, err
			}
			result.Updated++
		}

		if len(entries) < pageSize {
			return result, nil
		}
	}
}
