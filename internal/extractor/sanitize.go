package extractor

import "github.com/microcosm-cc/bluemonday"

// htmlPolicy is the allow-list for stored html_clean content: structural and
// inline formatting tags plus links and images, nothing executable.
var htmlPolicy = buildHTMLPolicy()

func buildHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "u", "h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "code", "pre", "hr", "div", "span",
		"ul", "ol", "li", "dl", "dt", "dd",
		"table", "thead", "tbody", "tr", "th", "td",
		"a", "img", "figure", "figcaption",
	)
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("href", "title", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowStandardURLs()
	return p
}

// SanitizeHTML strips everything outside the storage allow-list.
func SanitizeHTML(html string) string {
	if html == "" {
		return ""
	}
	return htmlPolicy.Sanitize(html)
}
