package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devplayground/playground/internal/catalog"
)

// CatalogOptions holds options for the catalog command.
type CatalogOptions struct {
	Format string
	Export string
	Index  int
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog [slug]",
		Short: "List catalog entries and snippets",
		Long: `List the component and animation catalog.

Without arguments every entry is listed. With an entry slug its snippets
are listed, and --export writes one of them as index.html, style.css and
script.js so it can be previewed or enhanced.

Output is a table on a terminal and markdown otherwise.`,
		Example: `  playground catalog
  playground catalog buttons
  playground catalog buttons --export ./demo --index 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return runCatalog(cmd, slug, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "auto", "Output format (auto|table|markdown)")
	cmd.Flags().StringVar(&opts.Export, "export", "", "Write the selected snippet's files to this directory")
	cmd.Flags().IntVar(&opts.Index, "index", 0, "Snippet index for --export")
	cmd.Flags().String("catalog-dir", "", "Directory of catalog YAML overrides")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "table", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCatalog(cmd *cobra.Command, slug string, opts *CatalogOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cat, err := catalog.New(cc.Cfg.Catalog.Dir, cc.Logger)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	w := cmd.OutOrStdout()
	markdown := useMarkdown(w, opts.Format)

	if slug == "" {
		if opts.Export != "" {
			return fmt.Errorf("--export needs an entry slug")
		}
		renderCategories(w, cat, markdown)
		return nil
	}

	entry, ok := cat.Entry(slug)
	if !ok {
		return fmt.Errorf("catalog entry not found: %s", slug)
	}

	if opts.Export != "" {
		if opts.Index < 0 || opts.Index >= len(entry.Snippets) {
			return fmt.Errorf("snippet index %d out of range (entry %s has %d)", opts.Index, slug, len(entry.Snippets))
		}
		snippet := entry.Snippets[opts.Index]
		if err := writeBundle(opts.Export, snippet.Bundle); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Exported %q to %s\n", snippet.Name, opts.Export)
		return nil
	}

	renderEntry(w, entry, markdown)
	return nil
}

// useMarkdown resolves the output format. Auto picks a table for a
// terminal and markdown for pipes and files.
func useMarkdown(w io.Writer, format string) bool {
	switch format {
	case "markdown", "md":
		return true
	case "table":
		return false
	}
	f, ok := w.(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func render(t table.Writer, markdown bool) {
	if markdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

func renderCategories(w io.Writer, cat *catalog.Catalog, markdown bool) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Entry", "Slug", "Snippets"})
	total := 0
	for _, c := range cat.Categories() {
		for _, e := range c.Entries {
			full, _ := cat.Entry(e.Slug)
			t.AppendRow(table.Row{c.Title, e.Title, e.Slug, len(full.Snippets)})
			total++
		}
	}
	render(t, markdown)
	_, _ = fmt.Fprintf(w, "(%d entries)\n", total)
}

func renderEntry(w io.Writer, entry catalog.Entry, markdown bool) {
	t := newTable(w)
	t.SetTitle(entry.Title)
	t.AppendHeader(table.Row{"#", "Name", "Tags", "HTML", "CSS", "JS"})
	for i, s := range entry.Snippets {
		t.AppendRow(table.Row{
			strconv.Itoa(i),
			s.Name,
			strings.Join(s.Tags, ", "),
			size(s.Bundle.Markup),
			size(s.Bundle.Style),
			size(s.Bundle.Script),
		})
	}
	render(t, markdown)
}

func size(s string) string {
	if s == "" {
		return "-"
	}
	return strconv.Itoa(len(s)) + " B"
}
