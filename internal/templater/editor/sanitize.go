package editor

import (
	"regexp"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/microcosm-cc/bluemonday"
)

// MarkupPolicy - политика очистки входящей разметки шаблона. Разрешает только
// то, что понимает схема договора, плюс атрибуты полей шаблона.
var MarkupPolicy = newMarkupPolicy()

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	colorRegexp := regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgba?\(\d+,\s*\d+,\s*\d+(,\s*[\d.]+)?\)|[a-z]+|inherit)$`)
	sizeRegexp := regexp.MustCompile(`^(\d+(\.\d+)?(px|em|rem|pt|%)?|auto)$`)
	fontRegexp := regexp.MustCompile(`^[\w\s,"'-]+$`)
	alignRegexp := regexp.MustCompile(`^(left|center|right|justify)$`)
	displayRegexp := regexp.MustCompile(`^none$`)
	trackerRegexp := regexp.MustCompile(`^[0-9a-zA-Z-]*$`)
	boolRegexp := regexp.MustCompile(`^(true|false)$`)
	fieldClassRegexp := regexp.MustCompile(`^[\w\s:-]+$`)

	p.AllowAttrs(attrfield.MarkerAttr).OnElements("span")
	p.AllowAttrs(attrfield.TrackerIDAttr).Matching(trackerRegexp).OnElements("span")
	p.AllowAttrs(attrfield.RequiredAttr, attrfield.HiddenAttr).Matching(boolRegexp).OnElements("span")
	p.AllowAttrs(attrfield.LabelAttr, attrfield.FieldKeyAttr, attrfield.DefaultValueAttr).OnElements("span")
	p.AllowAttrs("contenteditable").Matching(boolRegexp).OnElements("span")
	p.AllowAttrs("class").Matching(fieldClassRegexp).OnElements("span", "ul", "ol")
	p.AllowAttrs("style").OnElements("span", "p", "h1", "h2", "h3", "h4", "h5", "h6", "img")
	p.AllowAttrs("colwidth").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AllowStyles("color").Matching(colorRegexp).OnElements("span")
	p.AllowStyles("font-family").Matching(fontRegexp).OnElements("span")
	p.AllowStyles("font-size").Matching(sizeRegexp).OnElements("span")
	p.AllowStyles("display").Matching(displayRegexp).OnElements("span")
	p.AllowStyles("text-align").Matching(alignRegexp).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStyles("width", "height").Matching(sizeRegexp).OnElements("img")

	p.AllowDataURIImages()
	p.RequireNoFollowOnLinks(false)
	return p
}

// SanitizeHTML очищает разметку от всего, что не относится к документу.
func SanitizeHTML(markup string) string {
	return MarkupPolicy.Sanitize(markup)
}
