// Package catalog serves the browsable snippet catalog: categories of
// entries, each holding ready-made snippets to open in the playground.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/devplayground/playground/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed seeds/*.yaml
var seeds embed.FS

// Snippet is one ready-made bundle.
type Snippet struct {
	Name   string            `json:"name"`
	Tags   []string          `json:"tags"`
	Bundle core.SourceBundle `json:"bundle"`
}

// Entry is a subcategory, e.g. "Buttons".
type Entry struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Snippets []Snippet `json:"snippets,omitempty"`
}

// Category groups entries, e.g. "Components".
type Category struct {
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Entries []Entry `json:"subcategories"`
}

type fileCategory struct {
	Slug    string      `yaml:"slug"`
	Title   string      `yaml:"title"`
	Entries []fileEntry `yaml:"entries"`
}

type fileEntry struct {
	Slug     string        `yaml:"slug"`
	Title    string        `yaml:"title"`
	Snippets []fileSnippet `yaml:"snippets"`
}

type fileSnippet struct {
	Name   string   `yaml:"name"`
	Tags   []string `yaml:"tags"`
	Markup string   `yaml:"html"`
	Style  string   `yaml:"css"`
	Script string   `yaml:"js"`
}

// Catalog holds the loaded categories. It is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	categories []Category
	entries    map[string]*Entry
	dir        string
	logger     *slog.Logger
}

// New loads the embedded seeds, overlaid with the YAML files in dir when
// dir is not empty. A category in dir replaces the seed with the same slug.
func New(dir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{dir: dir, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the override directory, if any.
func (c *Catalog) Dir() string {
	return c.dir
}

// Reload re-reads seeds and the override directory.
func (c *Catalog) Reload() error {
	cats, err := Load(seeds, "seeds")
	if err != nil {
		return fmt.Errorf("failed to load catalog seeds: %w", err)
	}

	if c.dir != "" {
		overrides, err := Load(os.DirFS(c.dir), ".")
		if err != nil {
			return fmt.Errorf("failed to load catalog dir %s: %w", c.dir, err)
		}
		cats = merge(cats, overrides)
	}

	entries := make(map[string]*Entry)
	for i := range cats {
		for j := range cats[i].Entries {
			e := &cats[i].Entries[j]
			if _, dup := entries[e.Slug]; dup {
				return fmt.Errorf("duplicate catalog entry %q", e.Slug)
			}
			entries[e.Slug] = e
		}
	}

	c.mu.Lock()
	c.categories = cats
	c.entries = entries
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", slog.Int("categories", len(cats)), slog.Int("entries", len(entries)))
	return nil
}

// Categories returns categories and entry titles without snippets.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Slug: cat.Slug, Title: cat.Title, Entries: make([]Entry, len(cat.Entries))}
		for j, e := range cat.Entries {
			out[i].Entries[j] = Entry{Slug: e.Slug, Title: e.Title}
		}
	}
	return out
}

// Entry returns one entry with its snippets.
func (c *Catalog) Entry(slug string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[slug]
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Snippets = append([]Snippet(nil), e.Snippets...)
	return out, true
}

// Count returns the number of categories, entries and snippets.
func (c *Catalog) Count() (categories, entries, snippets int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		snippets += len(e.Snippets)
	}
	return len(c.categories), len(c.entries), snippets
}

// Load reads every *.yaml and *.yml file in dir of fsys, in name order.
func Load(fsys fs.FS, dir string) ([]Category, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !isYAML(f.Name()) {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)

	cats := make([]Category, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cat, err := parseCategory(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func parseCategory(data []byte) (Category, error) {
	var fc fileCategory
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Category{}, err
	}
	if fc.Slug == "" {
		return Category{}, fmt.Errorf("category slug is required")
	}

	cat := Category{Slug: fc.Slug, Title: titleOr(fc.Title, fc.Slug)}
	for _, fe := range fc.Entries {
		if fe.Slug == "" {
			return Category{}, fmt.Errorf("entry slug is required in category %q", fc.Slug)
		}
		entry := Entry{Slug: fe.Slug, Title: titleOr(fe.Title, fe.Slug)}
		for _, sn := range fe.Snippets {
			tags := sn.Tags
			if tags == nil {
				tags = []string{}
			}
			entry.Snippets = append(entry.Snippets, Snippet{
				Name:   strings.TrimSpace(sn.Name),
				Tags:   tags,
				Bundle: CleanBundle(core.SourceBundle{Markup: sn.Markup, Style: sn.Style, Script: sn.Script}),
			})
		}
		cat.Entries = append(cat.Entries, entry)
	}
	return cat, nil
}

func merge(base, overrides []Category) []Category {
	out := append([]Category(nil), base...)
	for _, o := range overrides {
		replaced := false
		for i := range out {
			if out[i].Slug == o.Slug {
				out[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}

// TitleFromSlug turns "fade-transitions" into "Fade Transitions".
func TitleFromSlug(slug string) string {
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}

func titleOr(title, slug string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return TitleFromSlug(slug)
}

func isYAML(name string) bool {
	ext := path.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
