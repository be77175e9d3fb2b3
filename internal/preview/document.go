// Package preview turns a SourceBundle into an isolated, re-renderable
// document and carries script errors out of it as RenderErrors.
//
// The browser isolation primitive is an iframe with a srcdoc document and
// sandbox="allow-scripts". Without allow-same-origin the frame runs in an
// opaque origin: it cannot read the host's cookies, storage or DOM and
// cannot navigate the top page. The only way out is postMessage to parent,
// which the reporter script uses to deliver errors.
package preview

import (
	"encoding/json"
	"strings"

	"github.com/devplayground/playground/pkg/core"
)

// MessageType tags error messages posted by the reporter script.
const MessageType = "preview-error"

// SandboxPolicy is the iframe sandbox attribute value.
const SandboxPolicy = "allow-scripts"

// ContentSecurityPolicy is embedded in every document. Inline code and
// https resources (CDN fonts, libraries, images) are allowed; everything
// else, including form submission and framing, is not.
const ContentSecurityPolicy = "default-src 'none'; " +
	"script-src 'unsafe-inline' 'unsafe-eval' https:; " +
	"style-src 'unsafe-inline' https:; " +
	"img-src data: blob: https:; " +
	"font-src data: https:; " +
	"media-src data: blob: https:; " +
	"connect-src https:; " +
	"form-action 'none'; base-uri 'none'"

const baseStyles = `* { box-sizing: border-box; }
html, body {
  margin: 0;
  padding: 0;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  background: #ffffff;
  min-height: 100vh;
  width: 100%;
}
body {
  padding: 12px;
  word-wrap: break-word;
  overflow-wrap: break-word;
}
img { max-width: 100%; height: auto; display: block; }
pre { white-space: pre-wrap; word-wrap: break-word; overflow-x: auto; max-width: 100%; }
code { word-wrap: break-word; overflow-wrap: break-word; }
@media (max-width: 768px) {
  body { padding: 8px; font-size: 14px; }
  h1 { font-size: 1.5em; }
  h2 { font-size: 1.3em; }
  h3 { font-size: 1.1em; }
}`

// reporterScript is installed before the user script. %SURFACE% is
// replaced with the JSON-quoted surface id.
const reporterScript = `(function () {
  var surface = %SURFACE%;
  function report(message) {
    try {
      parent.postMessage({ type: "` + MessageType + `", surface: surface, message: String(message) }, "*");
    } catch (_) {}
  }
  window.addEventListener("error", function (e) {
    if (e.error && e.error.message !== undefined) {
      report(e.error.message);
    } else {
      report(e.message);
    }
  });
  window.addEventListener("unhandledrejection", function (e) {
    var r = e.reason;
    report(r && r.message !== undefined ? r.message : r);
  });
})();`

// BuildDocument renders the wrapper document for one surface. The bundle
// is read, never modified. Markup goes inside .preview-container, the user
// style follows the base styles, and the user script runs in its own
// <script> element after the reporter is installed.
func BuildDocument(bundle core.SourceBundle, surfaceID string) string {
	quoted, _ := json.Marshal(surfaceID)

	var b strings.Builder
	b.Grow(len(baseStyles) + len(reporterScript) + len(bundle.Markup) + len(bundle.Style) + len(bundle.Script) + 512)

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\" />\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\" />\n")
	b.WriteString("<meta http-equiv=\"Content-Security-Policy\" content=\"")
	b.WriteString(ContentSecurityPolicy)
	b.WriteString("\" />\n<title>Preview</title>\n<style>\n")
	b.WriteString(baseStyles)
	b.WriteString("\n</style>\n<style>\n")
	b.WriteString(escapeStyle(bundle.Style))
	b.WriteString("\n</style>\n<script>\n")
	b.WriteString(strings.Replace(reporterScript, "%SURFACE%", escapeScript(string(quoted)), 1))
	b.WriteString("\n</script>\n</head>\n<body>\n<div class=\"preview-container\">\n")
	b.WriteString(bundle.Markup)
	b.WriteString("\n</div>\n")
	if bundle.Script != "" {
		b.WriteString("<script>\n")
		b.WriteString(escapeScript(bundle.Script))
		b.WriteString("\n</script>\n")
	}
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

// escapeScript keeps user code from closing the surrounding <script>
// element. "<\/script" is equivalent inside JS string and regex literals.
func escapeScript(s string) string {
	return replaceFold(s, "</script", `<\/script`)
}

// escapeStyle keeps user CSS from closing the surrounding <style> element.
func escapeStyle(s string) string {
	return replaceFold(s, "</style", `<\/style`)
}

// replaceFold replaces every case-insensitive occurrence of an ASCII
// needle, keeping the original letter case after the inserted backslash.
func replaceFold(s, needle, repl string) string {
	lower := asciiLower(s)
	if !strings.Contains(lower, needle) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	i := 0
	for {
		j := strings.Index(lower[i:], needle)
		if j < 0 {
			b.WriteString(s[i:])
			return b.String()
		}
		j += i
		b.WriteString(s[i:j])
		b.WriteString(repl[:2])
		b.WriteString(s[j+1 : j+len(needle)])
		i = j + len(needle)
	}
}

// asciiLower lower-cases A-Z byte by byte so offsets match the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
