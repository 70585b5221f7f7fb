// Package wiki retrieves article wikitext from the MediaWiki query API.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

	// MaxBodyBytes caps how much of a response is read.
	MaxBodyBytes int64 = 64 << 20

	ErrFetch            = errors.New("fetching article failed")
	ErrMalformedPayload = errors.New("malformed API payload")
	ErrNotFound         = errors.New("article not found")

	// missingPageID is the page id MediaWiki reports for titles which don't
	// exist.
	missingPageID = "-1"

	// contentPaths are tried in order; the legacy "*" key is what
	// format=json without formatversion=2 returns.
	contentPaths = []string{
		`revisions.0.\*`,
		`revisions.0.slots.main.\*`,
		`revisions.0.content`,
		`revisions.0.slots.main.content`,
	}
)

// Client fetches the latest revision content for an article title.
type Client struct {
	Endpoint   string        // Defaults to DefaultEndpoint.
	UserAgent  string        // Defaults to UserAgent.
	Timeout    time.Duration // Defaults to Timeout.  Ignored when HTTPClient is set.
	HTTPClient *http.Client
}

func New(endpoint string) *Client {
	if len(endpoint) == 0 {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		Endpoint: endpoint,
	}
	return c
}

// Fetch returns the wikitext of the latest revision of title.
//
// Errors match ErrFetch for transport problems and unusable responses,
// ErrMalformedPayload when the response body doesn't have the expected shape
// and ErrNotFound when the wiki has no such article.
func (c *Client) Fetch(ctx context.Context, title string) (string, error) {
	u := c.queryURL(title)
	log.WithField("title", title).Debugf("Fetching %v", u)

	resp, err := c.doRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %s", ErrFetch, title, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %q: reading body: %s", ErrFetch, title, err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: %q: unexpected status %v", ErrFetch, title, resp.Status)
	}
	if len(body) < 3 {
		return "", fmt.Errorf("%w: %q: unusable %v byte response", ErrFetch, title, len(body))
	}

	return ParseContent(body)
}

// ParseContent drills down from a query API response to the single page's
// revision text.
func ParseContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	pages := gjson.GetBytes(body, "query.pages")
	if !pages.IsObject() {
		return "", fmt.Errorf("%w: missing query.pages", ErrMalformedPayload)
	}
	m := pages.Map()
	if len(m) != 1 {
		return "", fmt.Errorf("%w: expected exactly 1 page but found %v", ErrMalformedPayload, len(m))
	}
	for id, page := range m {
		if id == missingPageID || page.Get("missing").Exists() {
			return "", fmt.Errorf("%w: %q", ErrNotFound, page.Get("title").String())
		}
		for _, path := range contentPaths {
			if content := page.Get(path); content.Type == gjson.String {
				return content.String(), nil
			}
		}
		return "", fmt.Errorf("%w: page %v has no revision content", ErrMalformedPayload, id)
	}
	panic("unreachable")
}

func (c *Client) queryURL(title string) string {
	endpoint := c.Endpoint
	if len(endpoint) == 0 {
		endpoint = DefaultEndpoint
	}
	params := url.Values{
		"action": {"query"},
		"titles": {title},
		"prop":   {"revisions"},
		"rvprop": {"content"},
		"format": {"json"},
	}
	return endpoint + "?" + params.Encode()
}
