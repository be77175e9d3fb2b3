package preview

import (
	"strings"
	"testing"

	"github.com/devplayground/playground/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestBuildDocument(t *testing.T) {
	bundle := core.SourceBundle{
		Markup: "<h1>Hello</h1>",
		Style:  "h1 { color: red; }",
		Script: "console.log('hi')",
	}
	doc := BuildDocument(bundle, "surface-1")

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, `<div class="preview-container">`+"\n<h1>Hello</h1>")
	assert.Contains(t, doc, "h1 { color: red; }")
	assert.Contains(t, doc, "console.log('hi')")
	assert.Contains(t, doc, `var surface = "surface-1";`)
	assert.Contains(t, doc, "Content-Security-Policy")
	assert.Contains(t, doc, MessageType)

	// Reporter comes before the user script.
	assert.Less(t, strings.Index(doc, "unhandledrejection"), strings.Index(doc, "console.log('hi')"))
	// User style comes after the base styles.
	assert.Less(t, strings.Index(doc, "box-sizing"), strings.Index(doc, "color: red"))
}

func TestBuildDocument_EmptyBundle(t *testing.T) {
	doc := BuildDocument(core.SourceBundle{}, "s")
	assert.Contains(t, doc, `<div class="preview-container">`)
	assert.Equal(t, 1, strings.Count(doc, "<script>"), "no user script element for empty script")
}

func TestBuildDocument_DoesNotMutateBundle(t *testing.T) {
	bundle := core.SourceBundle{Markup: "<p>x</p>", Style: "</style>", Script: "'</script>'"}
	before := bundle
	_ = BuildDocument(bundle, "s")
	assert.Equal(t, before, bundle)
}

func TestBuildDocument_Escaping(t *testing.T) {
	tests := []struct {
		name   string
		bundle core.SourceBundle
		want   string
		absent string
	}{
		{
			name:   "script close tag in string literal",
			bundle: core.SourceBundle{Script: `document.body.innerHTML = "</script><b>x</b>";`},
			want:   `"<\/script><b>x</b>"`,
			absent: `"</script><b>`,
		},
		{
			name:   "mixed case script close",
			bundle: core.SourceBundle{Script: `var s = "</SCRIPT>";`},
			want:   `"<\/SCRIPT>"`,
			absent: `"</SCRIPT>"`,
		},
		{
			name:   "style close tag",
			bundle: core.SourceBundle{Style: `p::after { content: "</style><script>alert(1)</script>"; }`},
			want:   `"<\/style><script>alert(1)</script>"`,
			absent: `"</style><script>`,
		},
		{
			name:   "unicode before needle",
			bundle: core.SourceBundle{Script: `var s = "İİ</script>";`},
			want:   `"İİ<\/script>"`,
			absent: `"İİ</script>"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildDocument(tt.bundle, "s")
			assert.Contains(t, doc, tt.want)
			assert.NotContains(t, doc, tt.absent)
		})
	}
}

func TestBuildDocument_SurfaceIDIsQuoted(t *testing.T) {
	doc := BuildDocument(core.SourceBundle{}, `a"</script>`)
	assert.Contains(t, doc, `var surface = "a\"\u003c/script\u003e";`)
}

func TestReplaceFold(t *testing.T) {
	assert.Equal(t, "plain", replaceFold("plain", "</script", `<\/script`))
	assert.Equal(t, `<\/script><\/Script>`, replaceFold("</script></Script>", "</script", `<\/script`))
}
