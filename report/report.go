// Package report renders fetched posts into a single plain-text blob
// suitable for pasting into downstream tools.
package report

import (
	"fmt"
	"strings"

	"daisy/crawler"
)

const separator = "\n\n========================================\n\n"

// BuildBlob concatenates posts into one text document, each post framed by
// its title and date. Truncation to a consumer's size limit is the caller's
// concern.
func BuildBlob(posts []crawler.PostRecord) string {
	sections := make([]string, 0, len(posts))
	for _, post := range posts {
		var section strings.Builder
		fmt.Fprintf(&section, "Title: %s\n", post.Title)
		if post.PublishedAt != "" {
			fmt.Fprintf(&section, "Date: %s\n", post.PublishedAt)
		}
		if post.IsPrivate {
			section.WriteString("Visibility: private\n")
		}
		fmt.Fprintf(&section, "Content: %s", post.Body)
		sections = append(sections, section.String())
	}
	return strings.Join(sections, separator)
}
