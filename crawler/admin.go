package crawler

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"daisy/oops"
)

const adminPageSize = 20

// AdminStrategy pulls post listings from the management AJAX endpoint. It is
// the only source with an explicit open/closed visibility flag, which makes
// its privacy signal authoritative, but it needs a bearer token and stops
// working the moment the admin front-end changes shape.
type AdminStrategy struct {
	Client   *resty.Client
	BlogID   string
	MaxPages int

	// Listing metadata keyed by logNo, consulted when the detail page is a
	// stub (access-restricted posts render nothing for the detail fetch).
	listed map[string]adminListItem
}

type adminListItem struct {
	Title     string
	Date      string
	IsPrivate bool
}

func NewAdminStrategy(client *resty.Client, blogID string, maxPages int) *AdminStrategy {
	return &AdminStrategy{
		Client:   client,
		BlogID:   blogID,
		MaxPages: maxPages,
		listed:   make(map[string]adminListItem),
	}
}

func (s *AdminStrategy) Name() string {
	return "admin-api"
}

func (s *AdminStrategy) Available(hasToken bool, _ bool) bool {
	return hasToken
}

func (s *AdminStrategy) ListIDs(ctx context.Context, logger Logger) ([]string, error) {
	initURL := fmt.Sprintf("https://blog.naver.com/%s", s.BlogID)
	WarmUpSession(s.Client, initURL, logger)

	var ids []string
	for page := 1; page <= s.MaxPages; page++ {
		resp, err := s.Client.R().
			SetContext(ctx).
			SetHeader("Referer", initURL).
			SetHeader("X-Requested-With", "XMLHttpRequest").
			SetQueryParams(map[string]string{
				"blogId":       s.BlogID,
				"menu":         "post",
				"range":        "all",
				"page":         strconv.Itoa(page),
				"countPerPage": strconv.Itoa(adminPageSize),
			}).
			Get("https://blog.naver.com/ManageListAjax.naver")
		if err != nil {
			return ids, oops.Wrapf(err, "admin listing page %d", page)
		}
		if resp.StatusCode() != http.StatusOK {
			logger.Warn("Admin listing page %d: status %d", page, resp.StatusCode())
			break
		}

		items := s.parseListingPage(resp.Body(), logger)
		if len(items) == 0 {
			break
		}
		for id, item := range items {
			s.listed[id] = item
			ids = append(ids, id)
		}
		logger.Info("Admin listing page %d: %d posts, %d total", page, len(items), len(ids))

		// A short page means the listing is exhausted.
		if len(items) < adminPageSize {
			break
		}
	}

	return ids, nil
}

type adminListingResponse struct {
	PostList []adminListingPost `json:"postList"`
}

type adminListingPost struct {
	LogNo    json.Number `json:"logNo"`
	Title    string      `json:"title"`
	AddDate  string      `json:"addDate"`
	OpenType string      `json:"openType"`
}

var scriptPostListRegex = regexp.MustCompile(`(?s)postList\s*:\s*(\[.*?\])`)

// parseListingPage handles the three shapes the admin endpoint has been
// observed to serve: a JSON body, JSON embedded in a script tag, and plain
// admin-table HTML rows.
func (s *AdminStrategy) parseListingPage(body []byte, logger Logger) map[string]adminListItem {
	var listing adminListingResponse
	if err := json.Unmarshal(body, &listing); err == nil && len(listing.PostList) > 0 {
		return adminItemsFromPosts(listing.PostList)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		logger.Warn("Admin listing: unparseable response")
		return nil
	}

	items := make(map[string]adminListItem)
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		match := scriptPostListRegex.FindStringSubmatch(sel.Text())
		if match == nil {
			return
		}
		var posts []adminListingPost
		if err := json.Unmarshal([]byte(match[1]), &posts); err != nil {
			return
		}
		for id, item := range adminItemsFromPosts(posts) {
			items[id] = item
		}
	})
	if len(items) > 0 {
		return items
	}

	doc.Find(".post_item, .lst_item, .admin_post").Each(func(_ int, row *goquery.Selection) {
		href, _ := row.Find(`a[href*="logNo="]`).First().Attr("href")
		match := logNoParamRegex.FindStringSubmatch(href)
		if match == nil {
			return
		}
		title := cleanText(row.Find(".title, .post_title, .area_text").First().Text())
		if title == "" {
			return
		}
		items[match[1]] = adminListItem{
			Title:     title,
			Date:      cleanText(row.Find(".date, .post_date, .date_info").First().Text()),
			IsPrivate: row.Find(".private, .secret, .ico_secret, .lock").Length() > 0,
		}
	})
	return items
}

func adminItemsFromPosts(posts []adminListingPost) map[string]adminListItem {
	items := make(map[string]adminListItem)
	for _, post := range posts {
		id := post.LogNo.String()
		if !isDigits(id) {
			continue
		}
		items[id] = adminListItem{
			Title:     strings.TrimSpace(post.Title),
			Date:      strings.TrimSpace(post.AddDate),
			IsPrivate: post.OpenType != "PUBLIC",
		}
	}
	return items
}

func (s *AdminStrategy) FetchDetail(ctx context.Context, id string, logger Logger) (*RawPost, error) {
	doc, err := fetchPostView(ctx, s.Client, s.BlogID, id, logger)
	if err != nil {
		return nil, err
	}

	raw := extractDetail(doc, id)
	listed, hasListing := s.listed[id]
	if raw == nil {
		if !hasListing {
			return nil, nil
		}
		// Access-restricted posts render an empty detail page; the listing
		// metadata is all there is.
		raw = &RawPost{ID: id, Title: listed.Title, Date: listed.Date}
	}
	if raw.Title == "" {
		raw.Title = listed.Title
	}
	if raw.Date == "" {
		raw.Date = listed.Date
	}
	if hasListing {
		raw.IsPrivate = listed.IsPrivate
		raw.FlagKnown = true
	}
	return raw, nil
}
