package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"daisy/crawler"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func record(id, title, body, publishedAt string, isPrivate bool) crawler.PostRecord {
	return crawler.PostRecord{
		ExternalID:  id,
		Title:       title,
		Body:        body,
		PublishedAt: publishedAt,
		IsPrivate:   isPrivate,
		URL:         "https://blog.naver.com/alice/" + id,
		Source:      "mobile-api",
	}
}

func TestMergeInsertsNewPosts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureBlog(ctx, "alice"))

	summary, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("200", "둘째 글", "본문 둘", "2024-04-22", false),
		record("100", "첫째 글", "본문 하나", "2024-04-20", true),
	})
	require.NoError(t, err)
	require.Equal(t, MergeSummary{Inserted: 2}, summary)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "200", posts[0].ExternalID)
	require.Equal(t, "100", posts[1].ExternalID)
	require.True(t, posts[1].IsPrivate)
}

func TestMergePatchesBlankDateOnly(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "원래 제목", "원래 본문", "", false),
	})
	require.NoError(t, err)

	summary, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "바뀐 제목", "바뀐 본문", "2024-04-22", false),
	})
	require.NoError(t, err)
	require.Equal(t, MergeSummary{Updated: 1}, summary)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "2024-04-22", posts[0].PublishedAt)
	// Title and body of an existing row never change.
	require.Equal(t, "원래 제목", posts[0].Title)
	require.Equal(t, "원래 본문", posts[0].Body)
}

func TestMergeKeepsStoredDate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "글", "본문", "2024-04-20", false),
	})
	require.NoError(t, err)

	summary, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "글", "본문", "2024-04-22", false),
	})
	require.NoError(t, err)
	require.Equal(t, MergeSummary{Skipped: 1}, summary)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "2024-04-20", posts[0].PublishedAt)
}

func TestMergeUpdatesPrivacyFlip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "글", "본문", "2024-04-20", false),
	})
	require.NoError(t, err)

	summary, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("100", "글", "본문", "2024-04-20", true),
	})
	require.NoError(t, err)
	require.Equal(t, MergeSummary{Updated: 1}, summary)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.True(t, posts[0].IsPrivate)
}

func TestMergeRejectsMissingExternalID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	summary, err := s.Merge(ctx, "alice", []crawler.PostRecord{
		record("", "아이디 없는 글", "본문", "2024-04-20", false),
		record("100", "정상 글", "본문", "2024-04-20", false),
	})
	require.NoError(t, err)
	require.Equal(t, MergeSummary{Inserted: 1, Rejected: 1}, summary)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "100", posts[0].ExternalID)
}

func TestMergeScopedByBlog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Merge(ctx, "alice", []crawler.PostRecord{record("100", "앨리스 글", "본문", "", false)})
	require.NoError(t, err)
	_, err = s.Merge(ctx, "bob", []crawler.PostRecord{record("100", "밥 글", "본문", "", false)})
	require.NoError(t, err)

	posts, err := s.Posts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "앨리스 글", posts[0].Title)
}
