package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/townecodex/codex/internal/render"
	"github.com/townecodex/codex/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Renderer string // "text" | "html"
	Out      string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <inventory-id>",
		Short: "Render a saved inventory as item cards",
		Long: `Render a saved inventory to printable item cards.

Example:
  codex render --db ./codex.db 3
  codex render --db ./codex.db 3 --renderer html --out loot.html`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Renderer, "renderer", "text", "output renderer (text|html)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write output to this file instead of stdout")

	return cmd
}

func runRender(opts *RenderOptions, rawID string, cmd *cobra.Command) error {
	var id int64
	if _, err := fmt.Sscanf(rawID, "%d", &id); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid inventory id %q", rawID))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	inv, err := st.GetInventory(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("inventory %d not found", id))
		}
		return WrapExitError(ExitCommandError, "failed to load inventory", err)
	}

	var doc string
	switch opts.Renderer {
	case "text":
		doc = render.TextInventory(inv)
	case "html":
		doc, err = render.HTMLInventory(inv)
		if err != nil {
			return WrapExitError(ExitCommandError, "render failed", err)
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown renderer %q (want text or html)", opts.Renderer))
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, []byte(doc), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.Out)
		return nil
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
	return err
}
