package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/sandevgo/chorus/pkg/retry"
)

const (
	maxResponseSize     = 1 << 20 // 1MB limit
	defaultFetchTimeout = 15 * time.Second
	defaultMaxLinks     = 2
	defaultMaxChars     = 1500
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// Previewer fetches pages linked in a message and turns them into text
// attachments a persona can read.
type Previewer struct {
	client   *http.Client
	retrier  *retry.Retrier
	maxLinks int
	maxChars int
}

func NewPreviewerWithTimeout(timeout time.Duration, retryCfg *retry.Config) *Previewer {
	if retryCfg == nil {
		retryCfg = retry.NewDefaultConfig()
		retryCfg.MaxRetries = 2
	}
	return &Previewer{
		client: &http.Client{
			Timeout: timeout,
		},
		retrier:  retry.NewRetrier(retryCfg),
		maxLinks: defaultMaxLinks,
		maxChars: defaultMaxChars,
	}
}

func NewPreviewer() *Previewer {
	return NewPreviewerWithTimeout(defaultFetchTimeout, nil)
}

// Attachments previews up to maxLinks links found in text. Links that fail
// are logged and skipped.
func (p *Previewer) Attachments(ctx context.Context, text string) []core.Attachment {
	logger := log.FromCtx(ctx)

	var res []core.Attachment
	for _, u := range ExtractURLs(text) {
		if len(res) == p.maxLinks {
			break
		}
		body, err := p.Fetch(ctx, u)
		if err != nil {
			logger.Warn().Err(err).Str("url", u).Msg("link preview failed")
			continue
		}
		if body = truncate(body, p.maxChars); body == "" {
			continue
		}
		res = append(res, core.Attachment{ContentType: "text/html", URL: u, Description: body})
	}
	return res
}

// Fetch downloads url and renders it as plain text.
func (p *Previewer) Fetch(ctx context.Context, url string) (string, error) {
	var body string
	err := p.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", core.AppUserAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		body, err = html2text.FromReader(io.LimitReader(resp.Body, maxResponseSize), html2text.Options{
			OmitLinks:    true,
			PrettyTables: false,
		})
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}

// ExtractURLs returns the distinct http(s) links of text in order, without
// trailing punctuation. Image links are left to the image pipeline.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?)]}")
		if seen[u] || isImage(u) {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

func isImage(u string) bool {
	path := strings.ToLower(u)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
