package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/importer"
	"github.com/townecodex/codex/internal/pricing"
	"github.com/townecodex/codex/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Chart        string
	DefaultImage string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <sheet.csv>",
		Short: "Import an item sheet into the catalog",
		Long: `Import items from a CSV sheet into the catalog database.

Rows are upserted idempotently (by source link, else by name and type),
and entries without a value get a chart price.

Example:
  codex import --db ./codex.db items.csv
  codex import --db ./codex.db --chart prices.yaml items.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chart, "chart", "", "YAML price chart overriding the built-in table")
	cmd.Flags().StringVar(&opts.DefaultImage, "image-default", "", "image URL for entries without one")

	return cmd
}

func runImport(opts *ImportOptions, sheetPath string, cmd *cobra.Command) error {
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

	imp := importer.New(st, chart, importer.WithDefaultImage(opts.DefaultImage))

	formatter.VerboseLog("importing %s", sheetPath)
	sum, err := imp.ImportCSV(cmd.Context(), sheetPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	text := fmt.Sprintf("Imported %d entries (%d priced from chart, %d left unpriced)",
		sum.Processed, sum.Priced, sum.Unpriced)
	return formatter.SuccessText(text+"\n", sum)
}

// loadChart returns the built-in chart when no override path is given.
func loadChart(path string) (pricing.Chart, error) {
	if path == "" {
		return pricing.Default(), nil
	}
	return pricing.LoadChart(path)
}
