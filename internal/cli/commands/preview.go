package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/pkg/core"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Out   string
	Check bool
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview [dir]",
		Short: "Build the preview document for a bundle",
		Long: `Read index.html, style.css and script.js from a directory and print the
sandboxed preview document the editor would load.

Syntax problems in the script and style are reported on stderr. With
--check the document is also rendered in a headless browser and runtime
errors are reported; the command fails if any were raised.`,
		Example: `  # Print the document for the current directory
  playground preview

  # Write it to a file
  playground preview ./demo --out demo.html

  # Render in a headless browser and report runtime errors
  playground preview ./demo --check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runPreview(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Render in a headless browser and report runtime errors")
	cmd.Flags().String("browser", "", "Browser binary for --check")

	return cmd
}

func runPreview(cmd *cobra.Command, dir string, opts *PreviewOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	bundle, err := readBundle(dir)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for _, d := range preview.Diagnose(bundle) {
		_, _ = fmt.Fprintf(stderr, "%s:%d:%d: %s\n", d.Language, d.Line, d.Column, d.Message)
	}

	surface := preview.NewSession().Render(bundle)
	if err := writeDocument(cmd.OutOrStdout(), opts.Out, surface.Document); err != nil {
		return err
	}

	if !opts.Check {
		return nil
	}

	renderer := newHeadless(cc.Cfg, cc.Logger)
	defer func() { _ = renderer.Close() }()

	runtimeErrors, err := renderer.Check(cmd.Context(), bundle)
	if errors.Is(err, preview.ErrBrowserUnavailable) {
		return fmt.Errorf("%w: install Chrome/Chromium or set preview.browser", err)
	}
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return reportRuntimeErrors(stderr, runtimeErrors)
}

func writeDocument(stdout io.Writer, path, document string) error {
	if path == "" {
		_, err := io.WriteString(stdout, document)
		return err
	}
	if err := os.WriteFile(path, []byte(document), 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func reportRuntimeErrors(w io.Writer, errs []core.RenderError) error {
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(w, "No runtime errors")
		return nil
	}
	for _, e := range errs {
		_, _ = fmt.Fprintf(w, "runtime error: %s\n", e.Message)
	}
	return fmt.Errorf("%d runtime error(s)", len(errs))
}
