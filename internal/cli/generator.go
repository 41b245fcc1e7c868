package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/store"
)

// NewGeneratorCommand creates the generator command group: saving,
// listing, and running named generator definitions.
func NewGeneratorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generator",
		Short: "Manage saved generator definitions",
		Long: `Save generation specs under a name, list them, and run them later.

Example:
  codex generator save village-shop shop.json --context shop
  codex generator list
  codex generator run village-shop --seed 7 --save "market day"`,
	}

	cmd.AddCommand(newGeneratorSaveCommand(rootOpts))
	cmd.AddCommand(newGeneratorListCommand(rootOpts))
	cmd.AddCommand(newGeneratorRunCommand(rootOpts))

	return cmd
}

// GeneratorSaveOptions holds flags for generator save.
type GeneratorSaveOptions struct {
	*RootOptions
	Context     string
	Description string
}

func newGeneratorSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GeneratorSaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "save <name> <spec.json|spec.cue>",
		Short:         "Save a generation spec under a name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeneratorSave(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "generation context label (shop, loot, ...)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "free-form description")

	return cmd
}

func runGeneratorSave(opts *GeneratorSaveOptions, name, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := LoadGenSpec(specPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load spec", err)
	}
	if err := spec.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid spec", err)
	}

	// Store the normalized JSON form regardless of the input format.
	configJSON, err := json.Marshal(spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode spec", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	id, err := st.SaveGenerator(cmd.Context(), store.Generator{
		Name:        name,
		Context:     opts.Context,
		Description: opts.Description,
		ConfigJSON:  string(configJSON),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save generator", err)
	}

	text := fmt.Sprintf("Saved generator %q (%d buckets)", name, len(spec.Buckets))
	return formatter.SuccessText(text+"\n", map[string]any{"id": id, "name": name})
}

func newGeneratorListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved generators",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeneratorList(rootOpts, cmd)
		},
	}
}

func runGeneratorList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	gens, err := st.ListGenerators(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list generators", err)
	}

	var b strings.Builder
	if len(gens) == 0 {
		b.WriteString("(no generators saved)\n")
	}
	for _, g := range gens {
		fmt.Fprintf(&b, "%-24s", g.Name)
		if g.Context != "" {
			fmt.Fprintf(&b, "  [%s]", g.Context)
		}
		if g.Description != "" {
			fmt.Fprintf(&b, "  %s", g.Description)
		}
		b.WriteString("\n")
	}
	return formatter.SuccessText(b.String(), gens)
}

func newGeneratorRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "run <name>",
		Short:         "Run a saved generator",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			return runGeneratorRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible output")
	cmd.Flags().StringVar(&opts.SaveName, "save", "", "save the result as a named inventory")

	return cmd
}

func runGeneratorRun(opts *GenerateOptions, name string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	g, err := st.GetGeneratorByName(cmd.Context(), name)
	closeErr := st.Close()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("generator %q not found", name))
		}
		return WrapExitError(ExitCommandError, "failed to load generator", err)
	}
	if closeErr != nil {
		return WrapExitError(ExitCommandError, "failed to close database", closeErr)
	}

	spec, err := ParseGenSpec(g.ConfigJSON)
	if err != nil {
		return WrapExitError(ExitCommandError, "stored generator config is invalid", err)
	}
	return runGeneration(opts, spec, cmd)
}
