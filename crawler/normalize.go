package crawler

import "strings"

// The platform renders untitled and permission-stub posts without any title
// element; storage requires a non-empty display string.
const untitledPlaceholder = "제목 없음"

// NormalizePost turns a strategy's raw output into the canonical record.
func NormalizePost(raw *RawPost, blogID, source string) PostRecord {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = untitledPlaceholder
	}

	return PostRecord{
		ExternalID:  strings.TrimSpace(raw.ID),
		Title:       title,
		Body:        strings.TrimSpace(raw.Body),
		PublishedAt: NormalizeDate(raw.Date),
		IsPrivate:   detectPrivate(raw),
		URL:         PostURL(blogID, strings.TrimSpace(raw.ID)),
		Source:      source,
	}
}
