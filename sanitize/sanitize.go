// Package sanitize turns operator-authored rich text into markup that is safe
// to serve to visitors.
//
// HTML runs two independent layers: an allow-list policy, then a pass that
// removes script-bearing and interactive elements and inline event handlers
// whatever the allow-list says. Embedded iframes are handled separately by
// Embed and Embeds because HTML never lets an iframe through.
package sanitize

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Config lists the elements and attributes the allow-list layer keeps.
type Config struct {
	Tags  []string
	Attrs []string
}

// DefaultConfig is the allow-list used for post descriptions.
var DefaultConfig = Config{
	Tags: []string{
		"p", "br", "hr", "div", "span",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"b", "i", "u", "s", "strong", "em", "mark", "small", "sub", "sup",
		"ul", "ol", "li",
		"a", "img",
		"blockquote", "q", "cite",
		"pre", "code",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		"figure", "figcaption", "details", "summary",
	},
	Attrs: []string{
		"class", "id", "style",
		"href", "target", "rel",
		"src", "alt", "width", "height", "loading",
		"colspan", "rowspan",
	},
}

// forbidden elements are removed after the allow-list layer. The bool marks
// elements whose content is dropped with them.
var forbidden = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"textarea": true,
	"select":   true,
	"form":     false,
	"input":    false,
	"button":   false,
}

// Sanitizer applies a Config. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds a Sanitizer from cfg.
func New(cfg Config) *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	if len(cfg.Tags) > 0 {
		p.AllowElements(cfg.Tags...)
	}
	if len(cfg.Attrs) > 0 {
		p.AllowAttrs(cfg.Attrs...).Globally()
	}
	return &Sanitizer{policy: p}
}

var std = New(DefaultConfig)

// HTML sanitizes dirty with DefaultConfig.
func HTML(dirty string) string {
	return std.HTML(dirty)
}

// HTML returns dirty reduced to the allow-list with forbidden elements and
// event-handler attributes removed.
func (s *Sanitizer) HTML(dirty string) string {
	if strings.TrimSpace(dirty) == "" {
		return ""
	}
	return stripForbidden(s.policy.Sanitize(dirty))
}

// stripForbidden re-serializes src without forbidden elements and without
// attributes whose name starts with "on".
func stripForbidden(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var buf bytes.Buffer
	// skip is the element whose content is being dropped, depth its nesting.
	skip, depth := "", 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or malformed input; either way the output so far is clean.
			return buf.String()
		}
		tok := z.Token()
		name := strings.ToLower(tok.Data)

		if skip != "" {
			switch {
			case tt == html.StartTagToken && name == skip:
				depth++
			case tt == html.EndTagToken && name == skip:
				depth--
				if depth == 0 {
					skip = ""
				}
			}
			continue
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			if dropContent, ok := forbidden[name]; ok {
				if dropContent && tt == html.StartTagToken {
					skip, depth = name, 1
				}
				continue
			}
			tok.Attr = withoutHandlers(tok.Attr)
			buf.WriteString(tok.String())
		case html.TextToken:
			buf.WriteString(tok.String())
		}
	}
}

func withoutHandlers(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
