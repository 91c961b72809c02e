package crawler

import (
	"context"
	"fmt"
)

// PostRecord is the canonical post shape every strategy's output is
// normalized into. Records are built fresh on every run and never mutated by
// the pipeline; only the merge stage in the store patches stored fields.
type PostRecord struct {
	// ExternalID is Naver's logNo, a string of digits unique within a blog.
	// It is the dedup key; records without one never reach storage.
	ExternalID  string
	Title       string
	Body        string
	PublishedAt string
	IsPrivate   bool
	URL         string
	// Source names the strategy that produced the record, for diagnostics.
	Source string
}

// RawPost is what a strategy hands to the normalizer: loosely-typed fields
// straight from whatever markup or payload the platform served.
type RawPost struct {
	ID    string
	Title string
	Body  string
	Date  string
	// IsPrivate is authoritative only when FlagKnown is set (the admin API
	// has an explicit open/closed flag); otherwise privacy is inferred from
	// page text by the normalizer.
	IsPrivate bool
	FlagKnown bool
	// PageText is the whole rendered page's text when the strategy had one,
	// consumed only by the privacy heuristics.
	PageText string
}

// Outcome is the uniform result contract shared by every strategy run and by
// the orchestrator itself.
type Outcome struct {
	Succeeded bool
	Message   string
	Posts     []PostRecord
	// Strategy is which acquisition method produced the posts, empty on
	// failure.
	Strategy string
	// FailedIDs lists identifiers whose detail fetch was given up on, so
	// listed and fetched counts reconcile.
	FailedIDs []string
}

// Strategy is one acquisition method. Both operations are total with respect
// to their return contract: soft failures come back as (nil, nil) or an
// error the orchestrator logs and falls through on, never as a panic.
type Strategy interface {
	Name() string
	// Available reports whether the strategy's preconditions are met.
	Available(hasToken bool, browserEnabled bool) bool
	// ListIDs enumerates candidate post identifiers, paginating while pages
	// come back full and stopping on an empty page, a short page, a parse
	// failure or the page ceiling.
	ListIDs(ctx context.Context, logger Logger) ([]string, error)
	// FetchDetail retrieves one post's raw fields. A nil result with nil
	// error means the post yielded nothing usable and should be skipped.
	FetchDetail(ctx context.Context, id string, logger Logger) (*RawPost, error)
}

// PostURL is the canonical post address, rebuilt deterministically from blog
// id and post id regardless of whatever URL a strategy happened to observe.
func PostURL(blogID, postID string) string {
	return fmt.Sprintf("https://blog.naver.com/%s/%s", blogID, postID)
}
