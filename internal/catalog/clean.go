package catalog

import (
	"strings"

	"github.com/devplayground/playground/pkg/core"
)

// Default playground sources, used for empty fields.
const (
	DefaultMarkup = "<h1>Hello World!</h1>\n<p>Start coding here...</p>"
	DefaultStyle  = "h1 {\n  color: #333;\n  text-align: center;\n}\n\np {\n  color: #666;\n  text-align: center;\n}"
	DefaultScript = "// Add your JavaScript here\nconsole.log(\"Hello from the playground!\");"
)

// DefaultBundle is the bundle a fresh playground starts with.
func DefaultBundle() core.SourceBundle {
	return core.SourceBundle{Markup: DefaultMarkup, Style: DefaultStyle, Script: DefaultScript}
}

// CleanCode unescapes literal \n, \t, \r, \", \' and \\ sequences, in
// that order, and trims the result. Seed files written with escaped
// one-line strings come out as normal source.
func CleanCode(code string) string {
	if code == "" {
		return ""
	}
	code = strings.ReplaceAll(code, `\n`, "\n")
	code = strings.ReplaceAll(code, `\t`, "\t")
	code = strings.ReplaceAll(code, `\r`, "\r")
	code = strings.ReplaceAll(code, `\"`, `"`)
	code = strings.ReplaceAll(code, `\'`, `'`)
	code = strings.ReplaceAll(code, `\\`, `\`)
	return strings.TrimSpace(code)
}

// CleanBundle cleans every field and substitutes the default source for
// fields that end up empty.
func CleanBundle(b core.SourceBundle) core.SourceBundle {
	out := core.SourceBundle{
		Markup: CleanCode(b.Markup),
		Style:  CleanCode(b.Style),
		Script: CleanCode(b.Script),
	}
	if out.Markup == "" {
		out.Markup = DefaultMarkup
	}
	if out.Style == "" {
		out.Style = DefaultStyle
	}
	if out.Script == "" {
		out.Script = DefaultScript
	}
	return out
}
