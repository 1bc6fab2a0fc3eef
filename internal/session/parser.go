package session

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/privsig/gpcscan/internal/classify"
)

// subresource is a third-party or first-party resource reference found
// in a page.
type subresource struct {
	url  string
	kind string
}

// pageStructure is everything a single parse pass extracts from a page.
type pageStructure struct {
	bannerPresent bool
	optOutPresent bool

	// rejectTarget is the href of the first reject-style consent control
	// found, resolved against the page URL. Empty when none exists.
	rejectTarget string

	subresources []subresource
}

// parsePage walks the document once, collecting subresource references
// and consent structure.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because it tolerates the malformed HTML commercial sites actually
// serve and gives a proper node tree for attribute checks.
func parsePage(content io.Reader, base *url.URL, tables *classify.Tables) (*pageStructure, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &pageStructure{
		subresources: make([]subresource, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			processElement(n, base, tables, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

func processElement(n *html.Node, base *url.URL, tables *classify.Tables, result *pageStructure) {
	// Banner detection is attribute-based: consent containers carry
	// marker substrings in their class or id.
	if !result.bannerPresent && matchesMarker(n, tables.BannerMarkers) {
		result.bannerPresent = true
	}

	switch n.Data {
	case "script":
		if src := resolveRef(base, getAttr(n, "src")); src != "" {
			result.subresources = append(result.subresources, subresource{url: src, kind: resourceScript})
		}

	case "img":
		if src := resolveRef(base, getAttr(n, "src")); src != "" {
			result.subresources = append(result.subresources, subresource{url: src, kind: resourceImage})
		}

	case "iframe":
		if src := resolveRef(base, getAttr(n, "src")); src != "" {
			result.subresources = append(result.subresources, subresource{url: src, kind: resourceIframe})
		}

	case "link":
		rel := strings.ToLower(getAttr(n, "rel"))
		if rel == "stylesheet" || rel == "preload" {
			if href := resolveRef(base, getAttr(n, "href")); href != "" {
				result.subresources = append(result.subresources, subresource{url: href, kind: resourceStylesheet})
			}
		}

	case "a", "button":
		text := strings.ToLower(nodeText(n) + " " + getAttr(n, "aria-label"))
		if containsAny(text, tables.OptOutPhrases) {
			result.optOutPresent = true
		}
		if result.rejectTarget == "" && containsAny(text, tables.RejectPhrases) {
			if href := resolveRef(base, getAttr(n, "href")); href != "" {
				result.rejectTarget = href
			}
		}
	}
}

// matchesMarker reports whether the node's class or id contains a banner
// marker substring.
func matchesMarker(n *html.Node, markers []string) bool {
	attrs := strings.ToLower(getAttr(n, "class") + " " + getAttr(n, "id"))
	if attrs == " " {
		return false
	}
	return containsAny(attrs, markers)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// nodeText collects the text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// resolveRef resolves a resource reference against the page URL,
// dropping pseudo-URLs that cannot be fetched.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "#" ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "data:") {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
