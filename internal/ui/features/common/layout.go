package common

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui/resources"
)

// DatastarScript is the datastar client bundle.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

// Page wraps body in the HTML document shell.
func Page(title string, isDev bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`+templ.EscapeString(title)+` - Playground</title>
<link rel="stylesheet" href="`+resources.StaticPath("playground.css")+`">
<script type="module" src="`+DatastarScript+`"></script>
<script type="module" src="`+resources.StaticPath("playground.js")+`"></script>
</head>
<body>
`); err != nil {
			return err
		}
		if isDev {
			if _, err := io.WriteString(w, `<div data-init="@get('/reload')"></div>`+"\n"); err != nil {
				return err
			}
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}

// Sidebar renders the catalog tree. The element id lets SSE patches
// replace it in place.
func Sidebar(data SidebarData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := `<aside id="sidebar" class="sidebar">` + "\n"
		if data.Authenticated {
			out += `<a class="saved" href="/api/code/my-codes">Saved Codes</a>` + "\n"
		}
		for _, cat := range data.CatalogTree {
			out += `<section><h3>` + templ.EscapeString(cat.Name) + ` <small>` + LenStr(cat.Children) + `</small></h3><ul>`
			for _, e := range cat.Children {
				class := ""
				if e.Slug == data.CurrentSlug {
					class = ` class="active"`
				}
				out += `<li` + class + `><a href="/?entry=` + templ.EscapeString(e.Slug) + `">` + templ.EscapeString(e.Name) + `</a></li>`
			}
			out += "</ul></section>\n"
		}
		out += "</aside>"
		_, err := io.WriteString(w, out)
		return err
	})
}

// Toast renders a transient message box.
func Toast(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		cls := "toast"
		if message == "" {
			cls += " hidden"
		}
		_, err := io.WriteString(w, `<div id="toast" class="`+cls+`" role="status">`+templ.EscapeString(message)+`</div>`)
		return err
	})
}

// PreviewFrame renders the sandboxed iframe for one surface. Replacing the
// element discards the previous document and everything it was running.
func PreviewFrame(surface preview.Surface) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<iframe id="preview" title="Preview" sandbox="`+preview.SandboxPolicy+
			`" data-surface="`+templ.EscapeString(surface.ID)+
			`" srcdoc="`+templ.EscapeString(surface.Document)+`"></iframe>`)
		return err
	})
}
