package playground

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	catalogsvc "github.com/devplayground/playground/internal/catalog"
	previewsvc "github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui/features/common"
)

// PageData holds everything the playground page renders.
type PageData struct {
	Sidebar     common.SidebarData
	Signals     common.Signals
	Surface     previewsvc.Surface
	Entry       *catalogsvc.Entry
	Suggestions []catalogsvc.Suggestion
	Debounce    time.Duration
}

type pageSignals struct {
	common.Signals
	Authenticated bool `json:"authenticated"`
}

// Body renders the playground layout: sidebar, editors, instruction bar
// and the preview frame.
func Body(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := json.Marshal(pageSignals{Signals: data.Signals, Authenticated: data.Sidebar.Authenticated})
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(`<main id="playground" data-signals="` + templ.EscapeString(string(signals)) + `"`)
		b.WriteString(` data-init="@get('/ui/catalog/updates?entry=` + templ.EscapeString(data.Sidebar.CurrentSlug) + `')">` + "\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := common.Sidebar(data.Sidebar).Render(ctx, w); err != nil {
			return err
		}

		b.Reset()
		if data.Sidebar.Authenticated {
			b.WriteString(`<div hidden data-init="@get('/api/auth/events')"></div>` + "\n")
		}
		if data.Entry != nil {
			b.WriteString(`<section class="entry"><h2>` + templ.EscapeString(data.Entry.Title) + `</h2><ul>`)
			for i, sn := range data.Entry.Snippets {
				b.WriteString(`<li><button data-on:click="@post('/ui/catalog/` + templ.EscapeString(data.Entry.Slug) + `/` + common.Itoa(i) + `')">` +
					templ.EscapeString(sn.Name) + `</button></li>`)
			}
			b.WriteString("</ul></section>\n")
		}
		b.WriteString(`<section class="editors">` + "\n")
		onInput := `data-on:input__debounce.` + strconv.FormatInt(data.Debounce.Milliseconds(), 10) + `ms="@post('/ui/preview')"`
		editor(&b, "html", "HTML", onInput)
		editor(&b, "css", "CSS", onInput)
		editor(&b, "js", "JavaScript", onInput)
		b.WriteString("</section>\n")
		b.WriteString(`<form class="instruction" data-on:submit__prevent="@post('/ui/enhance')">`)
		b.WriteString(`<input list="suggestions" placeholder="Describe a change" data-bind:instruction>`)
		b.WriteString(`<datalist id="suggestions">`)
		for _, s := range data.Suggestions {
			b.WriteString(`<option value="` + templ.EscapeString(s.Text) + `">` + templ.EscapeString(s.Description) + `</option>`)
		}
		b.WriteString(`</datalist><button type="submit" data-indicator:enhancing data-attr:disabled="$enhancing">Enhance</button></form>` + "\n")
		b.WriteString(`<button class="run" data-on:click="@post('/ui/preview')">Run</button>` + "\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if err := common.Toast("").Render(ctx, w); err != nil {
			return err
		}
		if err := common.PreviewFrame(data.Surface).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n<ul id=\"diagnostics\" class=\"diagnostics\"></ul>\n</main>")
		return err
	})
}

func editor(b *strings.Builder, signal, label, onInput string) {
	b.WriteString(`<label class="editor">` + label + `<textarea spellcheck="false" data-bind:` + signal + ` ` + onInput + `></textarea></label>` + "\n")
}
