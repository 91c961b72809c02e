package crawler

import (
	"fmt"
	neturl "net/url"
	"strings"
)

// InvalidUrlError is the only error the pipeline lets escape to the caller:
// without a blog id there is nothing to fall back to.
type InvalidUrlError struct {
	Url    string
	Reason string
}

func (e *InvalidUrlError) Error() string {
	return fmt.Sprintf("invalid blog url %q: %s", e.Url, e.Reason)
}

// Naver system pages that show up as the first path segment of malformed
// share links. The real blog id lives in query parameters on these, so a bare
// path hit on one of them is a rejection, not a blog id.
var reservedSegments = map[string]bool{
	"PostView.naver":             true,
	"PostList.naver":             true,
	"CommentList.naver":          true,
	"SympathyUpdateCenter.naver": true,
	"BlogTagCloud.naver":         true,
	"api":                        true,
}

const blogMeSuffix = ".blog.me"

// ExtractBlogID derives the canonical blog id from any of the URL shapes
// Naver has shipped over the years: bare path on blog.naver.com or
// m.blog.naver.com (with or without a trailing log number), the legacy
// <id>.blog.me subdomain, and PostView/PostList links carrying blogId as a
// query parameter (any key casing). All knowledge of Naver's URL shapes is
// centralized here; strategies never parse front-end URLs themselves.
func ExtractBlogID(url string) (string, error) {
	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return "", &InvalidUrlError{Url: url, Reason: "empty url"}
	}
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}

	uri, err := neturl.Parse(normalized)
	if err != nil {
		return "", &InvalidUrlError{Url: url, Reason: "unparseable"}
	}

	host := strings.ToLower(uri.Hostname())

	if strings.HasSuffix(host, blogMeSuffix) {
		blogID := strings.TrimSuffix(host, blogMeSuffix)
		if blogID == "" || strings.Contains(blogID, ".") {
			return "", &InvalidUrlError{Url: url, Reason: "no blog id in blog.me host"}
		}
		return blogID, nil
	}

	if blogID, ok := blogIDFromQuery(uri); ok {
		return blogID, nil
	}

	if host == "blog.naver.com" || host == "m.blog.naver.com" {
		path := strings.Trim(uri.Path, "/")
		if path == "" {
			return "", &InvalidUrlError{Url: url, Reason: "no blog id in path"}
		}
		segment := strings.SplitN(path, "/", 2)[0]
		if reservedSegments[segment] {
			return "", &InvalidUrlError{Url: url, Reason: "system page without blogId parameter"}
		}
		return segment, nil
	}

	return "", &InvalidUrlError{Url: url, Reason: "not a Naver blog url"}
}

func blogIDFromQuery(uri *neturl.URL) (string, bool) {
	for key, values := range uri.Query() {
		if !strings.EqualFold(key, "blogId") {
			continue
		}
		for _, value := range values {
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}
