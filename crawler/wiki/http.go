package wiki

import (
	"context"
	"io"
	"net/http"
	"time"
)

var (
	UserAgent = "Polyglot_Corpus_Bot/1.0 (+https://jaytaylor.com/polyglot)"
	Timeout   = 30 * time.Second
)

func (c *Client) doRequest(ctx context.Context, method string, u string, body io.Reader) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method string, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	ua := c.UserAgent
	if len(ua) == 0 {
		ua = UserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}
	hc := &http.Client{
		Timeout: timeout,
	}
	return hc
}
