package sanitize

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EmbedHosts are the providers whose iframes are re-emitted. A host matches
// when it equals an entry or is a subdomain of one.
var EmbedHosts = []string{
	"youtube.com",
	"www.youtube.com",
	"youtube-nocookie.com",
	"www.youtube-nocookie.com",
	"player.vimeo.com",
	"vimeo.com",
	"codepen.io",
	"codesandbox.io",
	"figma.com",
	"www.figma.com",
	"soundcloud.com",
	"w.soundcloud.com",
	"open.spotify.com",
	"bandcamp.com",
}

const (
	blockedHost    = "<!-- iframe blocked: untrusted host -->"
	blockedURL     = "<!-- iframe blocked: invalid url -->"
	blockedMissing = "<!-- iframe blocked: missing src -->"
)

// A paired iframe first, otherwise a lone opening tag.
var reIframe = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>|<iframe\b[^>]*>`)

// Embeds returns the iframes of s, one per line, each replaced by a minimal
// sandboxed iframe when its src is on a trusted host or by an inert comment
// otherwise. Everything else in s is discarded.
func Embeds(s string) string {
	matches := reIframe.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filterIframe(m))
	}
	return strings.Join(out, "\n")
}

func filterIframe(tag string) string {
	src, ok := iframeSrc(tag)
	if !ok {
		return blockedMissing
	}
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return blockedURL
	}
	if !trustedHost(u.Hostname()) {
		return blockedHost
	}
	return `<iframe src="` + html.EscapeString(u.String()) + `"` +
		` sandbox="allow-scripts allow-same-origin allow-presentation"` +
		` loading="lazy" referrerpolicy="no-referrer" allowfullscreen></iframe>`
}

// iframeSrc returns the src attribute of the first iframe start tag in tag.
// Attribute values come back unescaped.
func iframeSrc(tag string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(tag))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			if t.DataAtom != atom.Iframe {
				continue
			}
			for _, a := range t.Attr {
				if a.Key == "src" {
					return a.Val, true
				}
			}
			return "", false
		}
	}
}

func trustedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, d := range EmbedHosts {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// SourceURLs returns the whitespace-separated http(s) URLs found in s.
func SourceURLs(s string) []string {
	var urls []string
	for _, f := range strings.Fields(s) {
		if strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") {
			urls = append(urls, f)
		}
	}
	return urls
}
