package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"daisy/oops"
)

func fetchDocument(
	ctx context.Context, client *resty.Client, url string, headers map[string]string,
) (*goquery.Document, error) {
	req := client.R().SetContext(ctx)
	if headers != nil {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, oops.Wrapf(err, "GET %s", url)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, oops.Newf("GET %s: status %d", url, resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, oops.Wrapf(err, "parse %s", url)
	}
	return doc, nil
}

// fetchPostView loads the desktop post page. The desktop front-end often
// serves a shell whose real content lives in iframe#mainFrame; when present,
// the iframe target is fetched and parsed instead.
func fetchPostView(
	ctx context.Context, client *resty.Client, blogID, id string, logger Logger,
) (*goquery.Document, error) {
	url := fmt.Sprintf("https://blog.naver.com/PostView.naver?blogId=%s&logNo=%s", blogID, id)
	doc, err := fetchDocument(ctx, client, url, nil)
	if err != nil {
		return nil, err
	}

	src, ok := doc.Find("iframe#mainFrame").Attr("src")
	if !ok || src == "" {
		return doc, nil
	}
	if strings.HasPrefix(src, "/") {
		src = "https://blog.naver.com" + src
	} else if !strings.HasPrefix(src, "http") {
		src = "https://blog.naver.com/" + src
	}
	frameDoc, err := fetchDocument(ctx, client, src, nil)
	if err != nil {
		logger.Warn("Post %s: iframe load failed, using shell document: %v", id, err)
		return doc, nil
	}
	return frameDoc, nil
}
