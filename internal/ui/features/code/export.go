package code

import (
	"fmt"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/devplayground/playground/pkg/core"
)

// Markdown renders a snippet as a standalone Markdown document: title,
// tags, the markup converted to Markdown, then each source verbatim.
func Markdown(s *core.Snippet) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if len(s.Tags) > 0 {
		tags := make([]string, len(s.Tags))
		for i, t := range s.Tags {
			tags[i] = "`" + t + "`"
		}
		fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(tags, " "))
	}

	if strings.TrimSpace(s.Bundle.Markup) != "" {
		preview, err := htmltomarkdown.ConvertString(s.Bundle.Markup)
		if err != nil {
			return "", fmt.Errorf("failed to convert markup: %w", err)
		}
		if preview = strings.TrimSpace(preview); preview != "" {
			b.WriteString("## Preview\n\n")
			b.WriteString(preview)
			b.WriteString("\n\n")
		}
	}

	fenced(&b, "HTML", "html", s.Bundle.Markup)
	fenced(&b, "CSS", "css", s.Bundle.Style)
	fenced(&b, "JavaScript", "js", s.Bundle.Script)

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// fenced writes a code block whose fence is longer than any backtick run
// inside source.
func fenced(b *strings.Builder, title, lang, source string) {
	if strings.TrimSpace(source) == "" {
		return
	}
	fence := strings.Repeat("`", max(3, longestRun(source, '`')+1))
	fmt.Fprintf(b, "## %s\n\n%s%s\n%s\n%s\n\n", title, fence, lang, strings.TrimRight(source, "\n"), fence)
}

func longestRun(s string, c rune) int {
	best, run := 0, 0
	for _, r := range s {
		if r == c {
			run++
			best = max(best, run)
			continue
		}
		run = 0
	}
	return best
}

// Filename derives a download name like "my-snippet.md" from a snippet name.
func Filename(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		out = "snippet"
	}
	return out + ".md"
}
