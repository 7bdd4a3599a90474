// Package markup renders user-written markdown into sanitized HTML.
//
// Rendering is a pure function of the input body: the same body always yields
// the same HTML regardless of call order, so callers may re-render freely at
// every write.
package markup

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// allowedTags is the closed set of tags that survive sanitization. Anything
// else is stripped entirely, never escaped and kept.
var allowedTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i",
	"li", "ol", "pre", "strong", "ul", "h1", "h2", "h3", "p",
}

var (
	md     goldmark.Markdown
	policy *bluemonday.Policy
)

func init() {
	md = goldmark.New(
		// Linkify turns bare URLs in the body into anchors.
		goldmark.WithExtensions(extension.Linkify),
		// Raw HTML must reach the sanitizer intact. Goldmark would
		// otherwise replace it with an omission comment, taking the
		// surrounding paragraph text with it; bluemonday is the layer
		// that decides what survives.
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
	)

	policy = bluemonday.NewPolicy()
	policy.AllowElements(allowedTags...)
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("title").OnElements("abbr", "acronym")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
	// Dropping a script or style tag must drop its body too, not leave
	// the code behind as literal text.
	policy.SkipElementsContent("script", "style")
}

// Render converts markdown to HTML restricted to the allow-list. It never
// fails: unrenderable input degrades to its sanitized literal text.
func Render(body string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return policy.Sanitize(body)
	}
	return policy.Sanitize(buf.String())
}
