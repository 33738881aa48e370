// Package fetch retrieves website content for a record, bounded in
// size and time.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skylark-tools/letterpipe/pkg/pipeline/core"
)

// Browser-like UA; some sites reject default Go clients outright.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type Fetcher struct {
	client *http.Client
}

func New() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// NewWithClient is used by tests to point the fetcher at a local server.
func NewWithClient(c *http.Client) *Fetcher {
	return &Fetcher{client: c}
}

// Fetch retrieves url and returns at most maxLen bytes of its body.
// Failures come back classified for the call engine: 429 is
// rate-limited, 5xx is a server failure, any other non-2xx is fatal.
func (f *Fetcher) Fetch(ctx context.Context, url string, maxLen int, timeout time.Duration) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", core.BadRequest(fmt.Errorf("empty url"))
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", core.BadRequest(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Transport errors carry their own net.Error classification.
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", core.RateLimited(fmt.Errorf("fetch %s: %s", url, resp.Status))
	case resp.StatusCode/100 == 5:
		return "", core.Server(fmt.Errorf("fetch %s: %s", url, resp.Status))
	case resp.StatusCode/100 != 2:
		return "", core.BadRequest(fmt.Errorf("fetch %s: %s", url, resp.Status))
	}

	var body io.Reader = resp.Body
	if maxLen > 0 {
		body = io.LimitReader(resp.Body, int64(maxLen))
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
