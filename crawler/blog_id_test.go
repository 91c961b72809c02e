package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractBlogID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"desktop home", "https://blog.naver.com/alice", "alice"},
		{"desktop post", "https://blog.naver.com/alice/223456789012", "alice"},
		{"mobile home", "https://m.blog.naver.com/alice", "alice"},
		{"mobile post", "https://m.blog.naver.com/alice/223456789012", "alice"},
		{"no scheme", "blog.naver.com/alice", "alice"},
		{"http scheme", "http://blog.naver.com/alice", "alice"},
		{"trailing slash", "https://blog.naver.com/alice/", "alice"},
		{"legacy blog.me", "https://alice.blog.me", "alice"},
		{"blog.me with path", "https://alice.blog.me/223456789012", "alice"},
		{"postview query", "https://blog.naver.com/PostView.naver?blogId=alice&logNo=100", "alice"},
		{"postlist query", "https://blog.naver.com/PostList.naver?blogId=alice", "alice"},
		{"lowercase query key", "https://blog.naver.com/PostView.naver?blogid=alice", "alice"},
		{"uppercase query key", "https://blog.naver.com/PostView.naver?BLOGID=alice", "alice"},
		{"query beats path", "https://blog.naver.com/bob?blogId=alice", "alice"},
		{"surrounding whitespace", "  https://blog.naver.com/alice  ", "alice"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blogID, err := ExtractBlogID(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, blogID)
		})
	}
}

func TestExtractBlogIDRejects(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unrelated host", "https://example.com/alice"},
		{"naver root", "https://www.naver.com/"},
		{"bare host", "https://blog.naver.com"},
		{"reserved postview", "https://blog.naver.com/PostView.naver"},
		{"reserved postlist", "https://m.blog.naver.com/PostList.naver"},
		{"reserved commentlist", "https://blog.naver.com/CommentList.naver?logNo=100"},
		{"reserved sympathy", "https://blog.naver.com/SympathyUpdateCenter.naver"},
		{"reserved tagcloud", "https://blog.naver.com/BlogTagCloud.naver"},
		{"reserved api", "https://blog.naver.com/api/posts"},
		{"bare blog.me domain", "https://blog.me"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractBlogID(tc.url)
			require.Error(t, err)
			var invalidUrl *InvalidUrlError
			require.ErrorAs(t, err, &invalidUrl)
		})
	}
}
