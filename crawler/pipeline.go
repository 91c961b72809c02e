package crawler

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"daisy/config"
)

// Pipeline drives the ranked strategies. Each strategy is a clean,
// independent attempt at the whole post set: the first one to produce
// normalized posts wins, and partial progress from an abandoned strategy is
// discarded rather than merged with the next one's results.
type Pipeline struct {
	BlogID         string
	Strategies     []Strategy
	HasToken       bool
	BrowserEnabled bool
	MaxPosts       int
	DetailDelay    time.Duration
}

// NewPipeline resolves the blog id and assembles the ranked strategy list:
// browser automation first when enabled (rendered pages expose restricted
// content most reliably), then the mobile API, the admin API, and the public
// feed as the last resort. The only error returned is *InvalidUrlError.
func NewPipeline(blogURL, token string, cfg *config.Config) (*Pipeline, error) {
	blogID, err := ExtractBlogID(blogURL)
	if err != nil {
		return nil, err
	}

	sessionOptions := SessionOptions{
		Token:      token,
		Timeout:    cfg.HTTPTimeout(),
		RetryCount: cfg.RetryCount,
	}

	var strategies []Strategy
	strategies = append(strategies,
		NewBrowserStrategy(token, blogID, cfg.MaxListPages, cfg.BrowserScrollTime()))
	strategies = append(strategies,
		NewMobileStrategy(NewMobileSession(sessionOptions), blogID, cfg.MaxListPages))
	strategies = append(strategies,
		NewAdminStrategy(NewAdminSession(sessionOptions), blogID, cfg.MaxListPages))
	strategies = append(strategies,
		NewFeedStrategy(NewFeedSession(sessionOptions), blogID))

	return &Pipeline{
		BlogID:         blogID,
		Strategies:     strategies,
		HasToken:       token != "",
		BrowserEnabled: cfg.EnableBrowser,
		MaxPosts:       cfg.MaxPosts,
		DetailDelay:    cfg.DetailDelay(),
	}, nil
}

// Run tries each strategy in rank order and returns one complete outcome.
// Strategy failures are logged and fallen through, never raised; the three
// user-facing failure classes (bad url, everything exhausted, fetched but
// unusable) stay distinguishable in the message.
func (p *Pipeline) Run(ctx context.Context, logger Logger) Outcome {
	fetchedButEmpty := false

	for _, strategy := range p.Strategies {
		if closer, ok := strategy.(io.Closer); ok {
			defer func() {
				_ = closer.Close()
			}()
		}

		if !strategy.Available(p.HasToken, p.BrowserEnabled) {
			logger.Info("Strategy %s: preconditions unmet, skipping", strategy.Name())
			continue
		}

		start := time.Now()
		logger.Info("Strategy %s: start", strategy.Name())

		ids, err := strategy.ListIDs(ctx, logger)
		if err != nil {
			logger.Warn("Strategy %s: listing failed: %v", strategy.Name(), err)
			continue
		}
		if len(ids) == 0 {
			logger.Info("Strategy %s: no identifiers", strategy.Name())
			continue
		}
		ids = capNewestIDs(ids, p.MaxPosts)

		posts, failedIDs, emptyCount, canceled := p.fetchAll(ctx, strategy, ids, logger)
		if canceled {
			return Outcome{
				Succeeded: false,
				Message:   "수집이 중단되었습니다.",
				FailedIDs: failedIDs,
			}
		}
		if len(posts) == 0 {
			if emptyCount > 0 {
				fetchedButEmpty = true
			}
			logger.Warn("Strategy %s: %d identifiers but no usable posts", strategy.Name(), len(ids))
			continue
		}

		logger.Info(
			"Strategy %s: %d posts (%d failed) in %v",
			strategy.Name(), len(posts), len(failedIDs), time.Since(start).Round(time.Millisecond),
		)
		return Outcome{
			Succeeded: true,
			Message:   successMessage(strategy.Name(), len(posts), p.HasToken),
			Posts:     posts,
			Strategy:  strategy.Name(),
			FailedIDs: failedIDs,
		}
	}

	if fetchedButEmpty {
		return Outcome{
			Succeeded: false,
			Message:   "포스트를 가져왔지만 사용할 수 있는 내용이 없습니다.",
		}
	}
	return Outcome{
		Succeeded: false,
		Message:   "모든 스크래핑 방법이 실패했습니다. 블로그 URL과 계정 권한을 확인해주세요.",
	}
}

// fetchAll runs the detail loop for one strategy: sequential fetches with a
// fixed inter-request delay, a cooperative cancellation check between
// identifiers (never mid-fetch), and in-run id uniqueness where a later
// occurrence overwrites the earlier one in place.
func (p *Pipeline) fetchAll(
	ctx context.Context, strategy Strategy, ids []string, logger Logger,
) (posts []PostRecord, failedIDs []string, emptyCount int, canceled bool) {
	indexByID := make(map[string]int)

	for i, id := range ids {
		if ctx.Err() != nil {
			return posts, failedIDs, emptyCount, true
		}
		if i > 0 {
			time.Sleep(p.DetailDelay)
		}

		raw, err := strategy.FetchDetail(ctx, id, logger)
		if err != nil {
			logger.Warn("Post %s: fetch failed: %v", id, err)
			failedIDs = append(failedIDs, id)
			continue
		}
		if raw == nil {
			logger.Info("Post %s: nothing usable", id)
			failedIDs = append(failedIDs, id)
			continue
		}
		if strings.TrimSpace(raw.Title) == "" && strings.TrimSpace(raw.Body) == "" {
			logger.Info("Post %s: fetched but empty", id)
			emptyCount++
			continue
		}

		record := NormalizePost(raw, p.BlogID, strategy.Name())
		if record.ExternalID == "" {
			logger.Warn("Post %s: record has no external id, dropping", id)
			failedIDs = append(failedIDs, id)
			continue
		}

		if existing, ok := indexByID[record.ExternalID]; ok {
			posts[existing] = record
		} else {
			indexByID[record.ExternalID] = len(posts)
			posts = append(posts, record)
		}
	}

	return posts, failedIDs, emptyCount, false
}

// capNewestIDs keeps the numerically largest identifiers. Naver assigns
// logNos monotonically, so largest-first approximates most-recent-first.
func capNewestIDs(ids []string, maxPosts int) []string {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b string) int {
		numA, errA := strconv.ParseUint(a, 10, 64)
		numB, errB := strconv.ParseUint(b, 10, 64)
		if errA != nil || errB != nil {
			// Non-numeric ids should not happen; sort them last.
			if errA == nil {
				return -1
			}
			if errB == nil {
				return 1
			}
			return 0
		}
		switch {
		case numA > numB:
			return -1
		case numA < numB:
			return 1
		default:
			return 0
		}
	})
	if maxPosts > 0 && len(sorted) > maxPosts {
		sorted = sorted[:maxPosts]
	}
	return sorted
}

func successMessage(strategyName string, count int, hasToken bool) string {
	switch strategyName {
	case "admin-api":
		return fmt.Sprintf("관리자 API로 %d개의 포스트를 성공적으로 가져왔습니다.", count)
	case "mobile-api":
		return fmt.Sprintf("모바일 API로 %d개의 포스트를 성공적으로 가져왔습니다.", count)
	case "syndication-feed":
		message := fmt.Sprintf("RSS 피드로 %d개의 포스트를 성공적으로 가져왔습니다.", count)
		if hasToken {
			// The feed structurally cannot see restricted posts; say so
			// instead of silently under-delivering.
			message += " RSS는 비공개 글은 포함하지 않습니다."
		}
		return message
	case "browser":
		return fmt.Sprintf("브라우저 렌더링으로 %d개의 포스트를 성공적으로 가져왔습니다.", count)
	default:
		return fmt.Sprintf("%s로 %d개의 포스트를 가져왔습니다.", strategyName, count)
	}
}
