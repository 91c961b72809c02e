package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractDetailSmartEditorOne(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<div class="se-title-text">오늘의 기록</div>
			<div class="se-main-container">
				<p class="se-text-paragraph">아침 일찍 일어나서 한강을 따라 오래 달렸습니다.</p>
				<p class="se-text-paragraph">돌아오는 길에 커피를 마시면서 일기를 정리했습니다.</p>
				<p class="se-text-paragraph">좋아요</p>
			</div>
			<span class="se_publishDate">2024. 4. 22.</span>
		</body></html>`)

	raw := extractDetail(doc, "223456789012")
	require.NotNil(t, raw)
	require.Equal(t, "223456789012", raw.ID)
	require.Equal(t, "오늘의 기록", raw.Title)
	require.Equal(t, "2024. 4. 22.", raw.Date)
	require.Contains(t, raw.Body, "한강을 따라")
	require.Contains(t, raw.Body, "일기를 정리했습니다")
	// Short button-like fragments don't make it into the body.
	require.NotContains(t, raw.Body, "좋아요")
}

func TestExtractDetailLegacyView(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<h3 class="tit_view">옛날 글</h3>
			<div id="postViewArea">
				본문이 문단 태그 없이 통째로 들어 있는 구형 스킨입니다.
				<script>var tracking = 1;</script>
			</div>
			<span class="date">2019년 3월 5일</span>
		</body></html>`)

	raw := extractDetail(doc, "100")
	require.NotNil(t, raw)
	require.Equal(t, "옛날 글", raw.Title)
	require.Contains(t, raw.Body, "구형 스킨")
	require.NotContains(t, raw.Body, "tracking")
	require.Equal(t, "2019년 3월 5일", raw.Date)
}

func TestExtractDetailSelectorRank(t *testing.T) {
	// When multiple skins' markers coexist the higher-ranked one wins.
	doc := docFromHTML(t, `
		<html><body>
			<div class="se-title-text">새 제목</div>
			<h3 class="tit_view">옛 제목</h3>
			<div id="postViewArea">본문 내용이 여기에 충분히 길게 들어 있습니다.</div>
		</body></html>`)

	raw := extractDetail(doc, "100")
	require.NotNil(t, raw)
	require.Equal(t, "새 제목", raw.Title)
}

func TestExtractDetailMetaDateFallback(t *testing.T) {
	doc := docFromHTML(t, `
		<html><head>
			<meta property="og:regDate" content="20240422">
		</head><body>
			<div class="se-title-text">제목</div>
			<div class="se-main-container">본문 텍스트가 여기 충분히 길게 존재합니다.</div>
		</body></html>`)

	raw := extractDetail(doc, "100")
	require.NotNil(t, raw)
	require.Equal(t, "20240422", raw.Date)
}

func TestExtractDetailNothingUsable(t *testing.T) {
	doc := docFromHTML(t, `<html><body><div class="unrelated">chrome only</div></body></html>`)
	require.Nil(t, extractDetail(doc, "100"))
}

func TestDetectPrivate(t *testing.T) {
	tests := []struct {
		name string
		raw  RawPost
		want bool
	}{
		{
			"explicit flag private",
			RawPost{IsPrivate: true, FlagKnown: true, Title: "공개처럼 보이는 글"},
			true,
		},
		{
			"explicit flag public overrides markers",
			RawPost{IsPrivate: false, FlagKnown: true, PageText: "비공개 설정 안내"},
			false,
		},
		{
			"page marker korean",
			RawPost{Title: "글", Body: "본문", PageText: "이 글은 비공개 게시물입니다"},
			true,
		},
		{
			"page marker english",
			RawPost{Title: "post", Body: "body", PageText: "Access Denied"},
			true,
		},
		{
			"short detail with keyword",
			RawPost{Title: "비공개", Body: ""},
			true,
		},
		{
			"long body mentioning privacy is public",
			RawPost{
				Title: "프라이버시 이야기",
				Body: "개인정보 보호에 대한 생각을 길게 적어 본다. " +
					"충분히 긴 본문이면 키워드가 있어도 정상 글로 본다. private 단어 포함.",
			},
			false,
		},
		{
			"plain public post",
			RawPost{Title: "일상", Body: "오늘은 날씨가 좋아서 산책을 다녀왔습니다.", PageText: "일상 오늘은 날씨가 좋아서"},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, detectPrivate(&tc.raw))
		})
	}
}

func TestCollectPostIDs(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<a href="/PostView.naver?blogId=alice&logNo=300">글 3</a>
			<a href="https://blog.naver.com/alice/200">글 2</a>
			<a href="/PostView.naver?blogId=alice&logNo=300">중복</a>
			<a href="/alice/abc">숫자 아님</a>
			<script>location.href = "PostView.naver?blogId=alice&logNo=100";
			var detail = { post_id: '400' };</script>
		</body></html>`)

	ids := collectPostIDs(doc, "alice")
	require.Equal(t, []string{"300", "200", "100", "400"}, ids)
}

func TestNormalizePost(t *testing.T) {
	raw := &RawPost{
		ID:    " 223456789012 ",
		Title: "  제목  ",
		Body:  " 본문 ",
		Date:  "2024. 4. 22.",
	}
	record := NormalizePost(raw, "alice", "mobile-api")
	require.Equal(t, "223456789012", record.ExternalID)
	require.Equal(t, "제목", record.Title)
	require.Equal(t, "본문", record.Body)
	require.Equal(t, "2024-04-22", record.PublishedAt)
	require.Equal(t, "https://blog.naver.com/alice/223456789012", record.URL)
	require.Equal(t, "mobile-api", record.Source)
	require.False(t, record.IsPrivate)
}

func TestNormalizePostUntitled(t *testing.T) {
	record := NormalizePost(&RawPost{ID: "100", Body: "본문만 있는 글"}, "alice", "syndication-feed")
	require.Equal(t, "제목 없음", record.Title)
}
