package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/gen"
	"github.com/townecodex/codex/internal/render"
	"github.com/townecodex/codex/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Seed     int64
	SeedSet  bool
	SaveName string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <spec.json|spec.cue>",
		Short: "Generate an item list from a spec file",
		Long: `Generate a randomized item list from a declarative bucket spec.

The spec declares per-bucket filters and count ranges plus global item
and value caps. Generation either satisfies every constraint or fails
with a diagnostic naming the first infeasible bucket.

Example:
  codex generate --db ./codex.db shop.json
  codex generate --db ./codex.db --seed 7 --save "village shop" shop.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			spec, err := LoadGenSpec(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load spec", err)
			}
			return runGeneration(opts, spec, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible output")
	cmd.Flags().StringVar(&opts.SaveName, "save", "", "save the result as a named inventory")

	return cmd
}

// generationResult is the JSON payload for a successful run.
type generationResult struct {
	Label       string      `json:"label,omitempty"`
	Items       []cardJSON  `json:"items"`
	TotalValue  int         `json:"total_value"`
	InventoryID int64       `json:"inventory_id,omitempty"`
}

type cardJSON struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Rarity string `json:"rarity"`
	Value  *int   `json:"value"`
}

// runGeneration executes a loaded spec and reports the result. Shared
// by "generate" and "generator run".
func runGeneration(opts *GenerateOptions, spec gen.Spec, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.SeedSet {
		seed := opts.Seed
		spec.RandomSeed = &seed
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	generator := gen.New(st)
	items, err := generator.Generate(cmd.Context(), spec)
	if err != nil {
		if genErr, ok := gen.AsGenerationError(err); ok {
			_ = formatter.Error(string(genErr.Code), genErr.Error(), genErr.Details)
			return NewExitError(ExitFailure, genErr.Error())
		}
		return WrapExitError(ExitCommandError, "generation failed", err)
	}

	result := generationResult{
		Label:      spec.Label,
		TotalValue: gen.TotalValue(items),
	}
	for _, it := range items {
		result.Items = append(result.Items, cardJSON{
			ID:     it.ID,
			Name:   it.Name,
			Type:   it.Type,
			Rarity: it.Rarity,
			Value:  it.Value,
		})
	}

	if opts.SaveName != "" {
		invID, err := st.SaveInventory(cmd.Context(), opts.SaveName, spec.Label, spec.MaxTotalValue, items)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to save inventory", err)
		}
		result.InventoryID = invID
		formatter.VerboseLog("saved inventory %d (%s)", invID, opts.SaveName)
	}

	title := spec.Label
	if title == "" {
		title = "Generated Items"
	}
	text := render.TextPage(title, render.FromItems(items))
	text += fmt.Sprintf("Total value: %d gp\n", result.TotalValue)
	if result.InventoryID != 0 {
		text += fmt.Sprintf("Saved as inventory %d\n", result.InventoryID)
	}
	return formatter.SuccessText(text, result)
}
