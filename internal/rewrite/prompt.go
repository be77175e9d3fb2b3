package rewrite

import (
	"encoding/json"
	"strings"

	"github.com/devplayground/playground/pkg/core"
)

// Output contract keys the model must return.
const (
	KeyMarkup = "markup"
	KeyStyle  = "style"
	KeyScript = "script"
)

// BuildPrompt renders the model prompt for one rewrite. The instruction
// is embedded JSON-quoted so it cannot break out of its slot.
func BuildPrompt(bundle core.SourceBundle, instruction string) string {
	quoted, _ := json.Marshal(instruction)

	var b strings.Builder
	b.WriteString("You edit front-end code snippets made of HTML, CSS and JavaScript.\n")
	b.WriteString("Apply the instruction below to the current sources.\n\n")
	b.WriteString("Reply with a single bare JSON object and nothing else: no prose, no markdown, no code fences.\n")
	b.WriteString("The object must have exactly these three string fields:\n")
	b.WriteString(`{"` + KeyMarkup + `": "...", "` + KeyStyle + `": "...", "` + KeyScript + `": "..."}` + "\n")
	b.WriteString("Return every field, even when it is empty. Copy fields the instruction does not touch back unchanged.\n\n")
	b.WriteString("Instruction: ")
	b.Write(quoted)
	b.WriteString("\n\n")

	section(&b, "Current HTML ("+KeyMarkup+")", bundle.Markup)
	section(&b, "Current CSS ("+KeyStyle+")", bundle.Style)
	section(&b, "Current JavaScript ("+KeyScript+")", bundle.Script)

	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(title)
	b.WriteString(":\n<<<\n")
	b.WriteString(body)
	b.WriteString("\n>>>\n\n")
}
