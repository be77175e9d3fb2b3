package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/pkg/core"
)

// ErrNotConfigured is returned when no AI API key is configured.
var ErrNotConfigured = errors.New("AI enhancement is not configured (set PLAYGROUND_AI__API_KEY or GEMINI_API_KEY)")

// EnhanceOptions holds options for the enhance command.
type EnhanceOptions struct {
	Instruction string
	Out         string
}

// NewEnhanceCommand creates the enhance command.
func NewEnhanceCommand() *cobra.Command {
	opts := &EnhanceOptions{}

	cmd := &cobra.Command{
		Use:   "enhance [dir] --instruction TEXT",
		Short: "Rewrite a bundle with AI",
		Long: `Send the bundle in a directory and an instruction to the model and write
the rewritten index.html, style.css and script.js.

The three files are replaced together and only when the rewrite succeeds;
any failure leaves them untouched.`,
		Example: `  playground enhance ./demo -i "Center align all text"

  # Write the result somewhere else
  playground enhance ./demo -i "Round the corners of cards" --out ./demo-rounded`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runEnhance(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Instruction, "instruction", "i", "", "What to change")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Directory to write to (default: the input directory)")
	cmd.Flags().String("model", "", "Gemini model to use")
	_ = cmd.MarkFlagRequired("instruction")

	return cmd
}

func runEnhance(cmd *cobra.Command, dir string, opts *EnhanceOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	bundle, err := readBundle(dir)
	if err != nil {
		return err
	}

	mediator, err := newMediator(cmd.Context(), cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	return enhance(cmd, mediator, bundle, dir, opts)
}

func enhance(cmd *cobra.Command, mediator *rewrite.Mediator, bundle core.SourceBundle, dir string, opts *EnhanceOptions) error {
	if !mediator.Available() {
		return ErrNotConfigured
	}

	res := mediator.Rewrite(cmd.Context(), bundle, opts.Instruction)
	if res.Status != core.RewriteApplied {
		return fmt.Errorf("enhance %s: %s", res.Status, res.Reason)
	}

	out := opts.Out
	if strings.TrimSpace(out) == "" {
		out = dir
	}
	if err := writeBundle(out, res.Bundle); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s, %s and %s to %s\n", MarkupFile, StyleFile, ScriptFile, out)
	return nil
}
