package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Naver has shipped several incompatible front-end skins (smart editor one,
// se2, the legacy desktop views, two mobile generations) and any given post
// might still be served by any of them. Each field is therefore extracted by
// trying a ranked list of selectors, first non-empty text wins.
var titleSelectors = []string{
	".se-title-text",
	".se-documentTitle-titleText",
	".se_title",
	".tit_h3",
	"h3.tit_view",
	"h2.tit",
	".pcol1",
	".post_title",
	".se-module-text",
}

var bodySelectors = []string{
	".se-main-container",
	".se_component_wrap",
	".post_ct",
	"#postViewArea",
	".se_doc_viewer",
	"#viewTypeSelector",
	".post_body",
	".post-view",
	".post_content",
	".view",
}

var dateSelectors = []string{
	".se_publishDate",
	".se-module-date",
	".se_date",
	".pub_date",
	".post_date",
	".date_post",
	".date",
	".sub_info",
}

// UI chrome stripped from body containers before text extraction.
var chromeSelector = "script, style, .comment_area, .btn_area"

var restrictionMarkers = []string{
	"비공개",
	"권한이 없습니다",
	"access denied",
	"private",
	"permission required",
}

const (
	// Paragraphs at or under this length are navigation/button chrome, not
	// prose.
	minParagraphLen = 20
	// Details shorter than this that also carry a restriction keyword are
	// treated as access-denied stubs.
	suspiciouslyShortLen = 50
)

var whitespaceRegex = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLinesRegex = regexp.MustCompile(`\n{3,}`)

var logNoParamRegex = regexp.MustCompile(`logNo=(\d+)`)
var postIDScriptRegex = regexp.MustCompile(`post_id\s*:\s*['"]?(\d+)['"]?`)

// extractDetail pulls title, body and date out of a rendered post page.
// Returns nil when neither a title nor a body could be found, which the
// strategies treat as a skipped post.
func extractDetail(doc *goquery.Document, id string) *RawPost {
	title := firstSelectorText(doc, titleSelectors)
	body := extractBody(doc)
	date := firstSelectorText(doc, dateSelectors)
	date = strings.TrimSpace(strings.ReplaceAll(date, "작성일", ""))
	if date == "" {
		date = metaDate(doc)
	}

	if title == "" && body == "" {
		return nil
	}

	return &RawPost{
		ID:       id,
		Title:    title,
		Body:     body,
		Date:     date,
		PageText: cleanText(doc.Text()),
	}
}

func firstSelectorText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		text := cleanText(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// extractBody prefers paragraph-level nodes long enough to be prose, which
// filters out button labels and navigation that whole-container extraction
// drags in. Falls back to the whole container when no paragraph qualifies.
func extractBody(doc *goquery.Document) string {
	for _, selector := range bodySelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find(chromeSelector).Remove()

		var paragraphs []string
		container.Find("p, .se-text-paragraph").Each(func(_ int, s *goquery.Selection) {
			text := cleanText(s.Text())
			if len([]rune(text)) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n")
		}

		if text := cleanText(container.Text()); text != "" {
			return text
		}
	}
	return ""
}

func metaDate(doc *goquery.Document) string {
	selection := doc.Find(`meta[property="og:regDate"], meta[name="article:published_time"]`).First()
	content, _ := selection.Attr("content")
	return strings.TrimSpace(content)
}

// detectPrivate applies the restriction heuristics to a fetched detail. The
// keyword and short-content checks are approximate: a legitimately terse
// public post mentioning privacy can be misclassified. That imprecision is
// inherited from how the platform renders denial pages and is accepted.
func detectPrivate(raw *RawPost) bool {
	if raw.FlagKnown {
		return raw.IsPrivate
	}
	haystack := strings.ToLower(raw.PageText)
	for _, marker := range restrictionMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	combined := strings.ToLower(raw.Title + raw.Body)
	if len([]rune(combined)) < suspiciouslyShortLen {
		for _, marker := range restrictionMarkers {
			if strings.Contains(combined, marker) {
				return true
			}
		}
	}
	return false
}

// collectPostIDs scans rendered markup for post identifiers: logNo query
// parameters on anchors, modern /<blogId>/<logNo> paths, and identifiers
// buried in inline script. Order of first appearance is kept, duplicates
// dropped.
func collectPostIDs(doc *goquery.Document, blogID string) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && isDigits(id) && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if match := logNoParamRegex.FindStringSubmatch(href); match != nil {
			add(match[1])
			return
		}
		marker := "/" + blogID + "/"
		if idx := strings.Index(href, marker); idx >= 0 {
			rest := href[idx+len(marker):]
			rest = strings.SplitN(rest, "?", 2)[0]
			add(strings.SplitN(rest, "/", 2)[0])
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, match := range logNoParamRegex.FindAllStringSubmatch(text, -1) {
			add(match[1])
		}
		for _, match := range postIDScriptRegex.FindAllStringSubmatch(text, -1) {
			add(match[1])
		}
	})

	return ids
}

func cleanText(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
