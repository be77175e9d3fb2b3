package preview

import (
	"github.com/devplayground/playground/pkg/core"
	"github.com/evanw/esbuild/pkg/api"
)

// Diagnostic is a static syntax problem found before rendering. It is
// informational and never blocks a render.
type Diagnostic struct {
	Language string `json:"language"`
	Message  string `json:"message"`
	Line     int    `json:"line"`   // 1-based
	Column   int    `json:"column"` // 1-based
}

// Diagnose parses the script as JavaScript and the style as CSS and
// returns any syntax errors. Markup is not checked; browsers recover
// from malformed HTML.
func Diagnose(bundle core.SourceBundle) []Diagnostic {
	var out []Diagnostic
	if bundle.Script != "" {
		out = append(out, transform("JavaScript", bundle.Script, api.LoaderJS, false)...)
	}
	if bundle.Style != "" {
		// esbuild recovers from CSS syntax errors and reports them as warnings
		out = append(out, transform("CSS", bundle.Style, api.LoaderCSS, true)...)
	}
	return out
}

func transform(language, source string, loader api.Loader, withWarnings bool) []Diagnostic {
	result := api.Transform(source, api.TransformOptions{
		Loader:   loader,
		LogLevel: api.LogLevelSilent,
	})

	msgs := result.Errors
	if withWarnings {
		msgs = append(msgs, result.Warnings...)
	}

	diags := make([]Diagnostic, 0, len(msgs))
	for _, msg := range msgs {
		d := Diagnostic{Language: language, Message: msg.Text}
		if msg.Location != nil {
			d.Line = msg.Location.Line
			d.Column = msg.Location.Column + 1
		}
		diags = append(diags, d)
	}
	return diags
}
