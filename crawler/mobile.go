package crawler

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// MobileStrategy scrapes the mobile web front-end. It works with or without
// a token (a token unlocks restricted posts) and survives skin changes
// better than the admin endpoint because it falls back from embedded JSON to
// raw anchor scanning.
type MobileStrategy struct {
	Client   *resty.Client
	BlogID   string
	MaxPages int
}

func NewMobileStrategy(client *resty.Client, blogID string, maxPages int) *MobileStrategy {
	return &MobileStrategy{Client: client, BlogID: blogID, MaxPages: maxPages}
}

func (s *MobileStrategy) Name() string {
	return "mobile-api"
}

func (s *MobileStrategy) Available(bool, bool) bool {
	return true
}

func (s *MobileStrategy) ListIDs(ctx context.Context, logger Logger) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	for page := 1; page <= s.MaxPages; page++ {
		url := fmt.Sprintf(
			"https://m.blog.naver.com/%s?categoryNo=0&listStyle=post&page=%d", s.BlogID, page,
		)
		doc, err := fetchDocument(ctx, s.Client, url, nil)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			logger.Warn("Mobile listing page %d: %v", page, err)
			break
		}

		pageIDs := s.idsFromScriptJSON(doc, logger)
		if len(pageIDs) == 0 {
			pageIDs = collectPostIDs(doc, s.BlogID)
		}

		added := 0
		for _, id := range pageIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
				added++
			}
		}
		logger.Info("Mobile listing page %d: %d new ids, %d total", page, added, len(ids))

		// A page contributing nothing new means pagination has run out.
		if added == 0 {
			break
		}
	}

	return ids, nil
}

// The mobile front-end inlines its post list as a JavaScript object literal.
// Keys are unquoted and trailing commas appear, so the literal is massaged
// into JSON before decoding.
var scriptObjectRegex = regexp.MustCompile(
	`(?s)(?:blogPostListForm|blogInfo|postList)\s*=\s*(\{.*?\});`,
)
var unquotedKeyRegex = regexp.MustCompile(`([{,]\s*)(\w+)\s*:`)
var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

func (s *MobileStrategy) idsFromScriptJSON(doc *goquery.Document, logger Logger) []string {
	var ids []string
	seen := make(map[string]bool)

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		for _, match := range scriptObjectRegex.FindAllStringSubmatch(sel.Text(), -1) {
			literal := unquotedKeyRegex.ReplaceAllString(match[1], `$1"$2":`)
			literal = trailingCommaRegex.ReplaceAllString(literal, `$1`)

			var payload struct {
				PostList []struct {
					LogNo json.Number `json:"logNo"`
				} `json:"postList"`
				Posts []struct {
					LogNo json.Number `json:"logNo"`
				} `json:"posts"`
			}
			if err := json.Unmarshal([]byte(literal), &payload); err != nil {
				continue
			}
			for _, post := range payload.PostList {
				id := post.LogNo.String()
				if isDigits(id) && !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
			for _, post := range payload.Posts {
				id := post.LogNo.String()
				if isDigits(id) && !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	})

	if len(ids) > 0 {
		logger.Info("Mobile listing: %d ids from embedded JSON", len(ids))
	}
	return ids
}

func (s *MobileStrategy) FetchDetail(ctx context.Context, id string, logger Logger) (*RawPost, error) {
	url := fmt.Sprintf(
		"https://m.blog.naver.com/PostView.naver?blogId=%s&logNo=%s", s.BlogID, id,
	)
	doc, err := fetchDocument(ctx, s.Client, url, nil)
	if err != nil {
		return nil, err
	}
	return extractDetail(doc, id), nil
}
