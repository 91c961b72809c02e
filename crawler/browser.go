package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"daisy/oops"
)

// BrowserStrategy drives a real headless browser. It is by far the heaviest
// strategy and only runs when explicitly enabled, but rendered pages are the
// most reliable way to see access-restricted posts, so when it runs it is
// ranked first.
type BrowserStrategy struct {
	Token      string
	BlogID     string
	MaxPages   int
	ScrollTime time.Duration

	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowserStrategy(token, blogID string, maxPages int, scrollTime time.Duration) *BrowserStrategy {
	return &BrowserStrategy{
		Token:      token,
		BlogID:     blogID,
		MaxPages:   maxPages,
		ScrollTime: scrollTime,
	}
}

func (s *BrowserStrategy) Name() string {
	return "browser"
}

func (s *BrowserStrategy) Available(hasToken bool, browserEnabled bool) bool {
	return browserEnabled && hasToken
}

func (s *BrowserStrategy) connect(logger Logger) error {
	if s.browser != nil {
		return nil
	}

	s.launcher = launcher.New()
	browserURL, err := s.launcher.Launch()
	if err != nil {
		return oops.Wrap(err)
	}
	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return oops.Wrap(err)
	}
	s.browser = browser
	logger.Info("Connected to the browser")

	// The platform scopes session cookies per host, so the derived cookies
	// go onto every domain the strategy touches.
	var cookies []*proto.NetworkCookieParam
	for _, domain := range []string{".naver.com", ".blog.naver.com", ".m.blog.naver.com"} {
		for _, cookie := range tokenCookies(s.Token) {
			cookies = append(cookies, &proto.NetworkCookieParam{ //nolint:exhaustruct
				Name:   cookie.Name,
				Value:  cookie.Value,
				Domain: domain,
				Path:   "/",
			})
		}
	}
	if err := s.browser.SetCookies(cookies); err != nil {
		return oops.Wrap(err)
	}
	return nil
}

// Close releases the browser. Safe to call whether or not connect ran.
func (s *BrowserStrategy) Close() error {
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
	return nil
}

func (s *BrowserStrategy) ListIDs(ctx context.Context, logger Logger) ([]string, error) {
	if err := s.connect(logger); err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	merge := func(pageIDs []string) int {
		added := 0
		for _, id := range pageIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
				added++
			}
		}
		return added
	}

	for pageNum := 1; pageNum <= s.MaxPages; pageNum++ {
		url := fmt.Sprintf(
			"https://blog.naver.com/PostList.naver?blogId=%s&categoryNo=0&currentPage=%d",
			s.BlogID, pageNum,
		)
		html, err := s.renderPage(ctx, url, true, logger)
		if err != nil {
			logger.Warn("Browser listing page %d: %v", pageNum, err)
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logger.Warn("Browser listing page %d: parse: %v", pageNum, err)
			break
		}
		added := merge(collectPostIDs(doc, s.BlogID))
		logger.Info("Browser listing page %d: %d new ids, %d total", pageNum, added, len(ids))
		if added == 0 {
			break
		}
	}

	// The mobile front-end sometimes lists posts the desktop list hides.
	if html, err := s.renderPage(ctx, "https://m.blog.naver.com/"+s.BlogID, true, logger); err == nil {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			merge(collectPostIDs(doc, s.BlogID))
		}
	}

	return ids, nil
}

func (s *BrowserStrategy) FetchDetail(ctx context.Context, id string, logger Logger) (*RawPost, error) {
	if err := s.connect(logger); err != nil {
		return nil, err
	}
	url := fmt.Sprintf(
		"https://m.blog.naver.com/PostView.naver?blogId=%s&logNo=%s", s.BlogID, id,
	)
	html, err := s.renderPage(ctx, url, false, logger)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, oops.Wrap(err)
	}
	return extractDetail(doc, id), nil
}

const browserIdleWait = 10 * time.Second

// renderPage navigates, waits for the network to settle, optionally scrolls
// to trigger lazy-loaded list content, and returns the rendered DOM.
func (s *BrowserStrategy) renderPage(
	ctx context.Context, url string, scroll bool, logger Logger,
) (string, error) {
	rawPage, err := s.browser.Page(proto.TargetCreateTarget{}) //nolint:exhaustruct
	if err != nil {
		return "", oops.Wrap(err)
	}
	defer func() {
		_ = rawPage.Close()
	}()
	page := rawPage.Context(ctx).Timeout(browserIdleWait + s.ScrollTime + 10*time.Second)

	// Images and fonts only slow rendering down.
	hijackRouter := page.HijackRequests()
	err = hijackRouter.Add("*", proto.NetworkResourceTypeImage, func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return "", oops.Wrap(err)
	}
	err = hijackRouter.Add("*", proto.NetworkResourceTypeFont, func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return "", oops.Wrap(err)
	}
	go hijackRouter.Run()
	defer func() {
		_ = hijackRouter.Stop()
	}()

	if err := page.Navigate(url); err != nil {
		return "", oops.Wrap(err)
	}
	page.Timeout(browserIdleWait).WaitRequestIdle(500*time.Millisecond, []string{".+"}, nil, nil)()

	if scroll {
		if err := s.scrollToBottom(page, logger); err != nil {
			logger.Warn("Scroll failed: %v", err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", oops.Wrap(err)
	}
	return html, nil
}

// scrollToBottom keeps scrolling until the document stops growing or the
// scroll budget runs out.
func (s *BrowserStrategy) scrollToBottom(page *rod.Page, logger Logger) error {
	start := time.Now()
	lastHeight := -1
	stableRounds := 0
	for time.Since(start) < s.ScrollTime {
		var scrollOptions rod.EvalOptions
		scrollOptions.JS = "() => window.scrollBy(0, document.body.scrollHeight)"
		if _, err := page.Timeout(3 * time.Second).Evaluate(&scrollOptions); err != nil {
			return oops.Wrap(err)
		}
		time.Sleep(700 * time.Millisecond)

		var heightOptions rod.EvalOptions
		heightOptions.JS = "() => document.body.scrollHeight"
		result, err := page.Timeout(3 * time.Second).Evaluate(&heightOptions)
		if err != nil {
			return oops.Wrap(err)
		}
		height := result.Value.Int()
		if height == lastHeight {
			stableRounds++
			if stableRounds >= 2 {
				break
			}
		} else {
			stableRounds = 0
			lastHeight = height
		}
	}
	logger.Info("Scrolled for %v", time.Since(start).Round(time.Millisecond))
	return nil
}
