package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/render"
	"github.com/townecodex/codex/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Name       string
	Type       string
	Rarities   []string
	Attunement string // "yes" | "no" | "any"
	Text       string
	Page       int
	Size       int
	Sort       string
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search catalog entries",
		Long: `Search the catalog with typed filters.

Example:
  codex search --db ./codex.db --name potion
  codex search --db ./codex.db --rarity Rare --rarity "Very Rare" --attunement no --sort -value`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "name substring filter")
	cmd.Flags().StringVar(&opts.Type, "type", "", "exact type filter")
	cmd.Flags().StringArrayVar(&opts.Rarities, "rarity", nil, "rarity filter (repeatable)")
	cmd.Flags().StringVar(&opts.Attunement, "attunement", "any", "attunement filter (yes|no|any)")
	cmd.Flags().StringVar(&opts.Text, "text", "", "full-text filter over name and description")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "result page, starting at 1")
	cmd.Flags().IntVar(&opts.Size, "size", 20, "results per page")
	cmd.Flags().StringVar(&opts.Sort, "sort", "name", "sort key (name|type|rarity|value|id, - prefix for descending)")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	attunement, err := parseAttunementFlag(opts.Attunement)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --attunement", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	filters := store.EntryFilters{
		NameContains: opts.Name,
		TypeEquals:   opts.Type,
		RarityIn:     opts.Rarities,
		Attunement:   attunement,
		Text:         opts.Text,
	}

	entries, err := st.SearchEntries(cmd.Context(), filters, opts.Page, opts.Size, opts.Sort)
	if err != nil {
		return WrapExitError(ExitCommandError, "search failed", err)
	}

	cards := render.FromItems(entries)
	return formatter.SuccessText(render.TextPage("Search Results", cards), entries)
}

// parseAttunementFlag maps the flag value to the tri-state filter.
func parseAttunementFlag(v string) (*bool, error) {
	switch strings.ToLower(v) {
	case "", "any":
		return nil, nil
	case "yes", "true":
		t := true
		return &t, nil
	case "no", "false":
		f := false
		return &f, nil
	}
	return nil, fmt.Errorf("want yes, no, or any (got %q)", v)
}
