package crawler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedIDsFromXML(t *testing.T) {
	strategy := NewFeedStrategy(nil, "alice")
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>앨리스의 블로그</title>
	<item>
		<title>셋째 글</title>
		<guid>https://blog.naver.com/alice/300</guid>
		<link>https://blog.naver.com/alice/300</link>
	</item>
	<item>
		<title>둘째 글</title>
		<guid>not-a-url</guid>
		<link>https://blog.naver.com/PostView.naver?blogId=alice&amp;logNo=200</link>
	</item>
	<item>
		<title>중복 글</title>
		<guid>https://blog.naver.com/alice/300</guid>
	</item>
</channel>
</rss>`

	ids := strategy.idsFromXML(body, NewTestLogger())
	require.Equal(t, []string{"300", "200"}, ids)
}

func TestFeedIDsFromXMLCeiling(t *testing.T) {
	strategy := NewFeedStrategy(nil, "alice")
	var items strings.Builder
	for i := 0; i < feedIDCeiling+10; i++ {
		fmt.Fprintf(&items, "<item><guid>https://blog.naver.com/alice/%d</guid></item>", 1000+i)
	}
	body := `<?xml version="1.0"?><rss><channel>` + items.String() + `</channel></rss>`

	ids := strategy.idsFromXML(body, NewTestLogger())
	require.Len(t, ids, feedIDCeiling)
}

func TestFeedIDsFromXMLGarbage(t *testing.T) {
	strategy := NewFeedStrategy(nil, "alice")
	require.Empty(t, strategy.idsFromXML("definitely not xml <<<", NewTestLogger()))
}

func TestFeedIDFromURL(t *testing.T) {
	strategy := NewFeedStrategy(nil, "alice")
	tests := []struct {
		url  string
		want string
	}{
		{"https://blog.naver.com/alice/300", "300"},
		{"https://blog.naver.com/alice/300?from=rss", "300"},
		{"https://m.blog.naver.com/alice/300/comments", "300"},
		{"https://blog.naver.com/PostView.naver?blogId=alice&logNo=200", "200"},
		{"https://blog.naver.com/bob/300", ""},
		{"not a url", ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, strategy.idFromURL(tc.url), "url %q", tc.url)
	}
}
