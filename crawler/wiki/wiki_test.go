package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	foundPayload = `{"batchcomplete":"","query":{"pages":{"23862":{"pageid":23862,"ns":0,"title":"Python (programming language)","revisions":[{"contentformat":"text/x-wiki","contentmodel":"wikitext","*":"'''Python''' is a [[high-level programming language]]."}]}}}}`

	missingPayload = `{"batchcomplete":"","query":{"pages":{"-1":{"ns":0,"title":"Rust (nonexistent)","missing":""}}}}`

	slotsPayload = `{"query":{"pages":{"1":{"pageid":1,"title":"Go","revisions":[{"slots":{"main":{"contentmodel":"wikitext","*":"Go text"}}}]}}}}`
)

func TestParseContent(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		content string
		err     error
	}{
		{name: "found", body: foundPayload, content: "'''Python''' is a [[high-level programming language]]."},
		{name: "slots", body: slotsPayload, content: "Go text"},
		{name: "missing", body: missingPayload, err: ErrNotFound},
		{name: "not json", body: `<html>oops</html>`, err: ErrMalformedPayload},
		{name: "no query", body: `{"error":{"code":"badvalue"}}`, err: ErrMalformedPayload},
		{name: "two pages", body: `{"query":{"pages":{"1":{"revisions":[{"*":"a"}]},"2":{"revisions":[{"*":"b"}]}}}}`, err: ErrMalformedPayload},
		{name: "no revisions", body: `{"query":{"pages":{"7":{"title":"C"}}}}`, err: ErrMalformedPayload},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			content, err := ParseContent([]byte(testCase.body))
			if testCase.err != nil {
				assert.True(t, errors.Is(err, testCase.err), "expected %v but got %v", testCase.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.content, content)
		})
	}
}

func TestClientFetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("prop") != "revisions" || q.Get("rvprop") != "content" || q.Get("format") != "json" {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		switch q.Get("titles") {
		case "Python (programming language)":
			fmt.Fprint(w, foundPayload)
		case "Rust (nonexistent)":
			fmt.Fprint(w, missingPayload)
		case "Short":
			fmt.Fprint(w, "{}")
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	ctx := context.Background()

	content, err := c.Fetch(ctx, "Python (programming language)")
	require.NoError(t, err)
	assert.Contains(t, content, "[[high-level programming language]]")
	assert.Equal(t, UserAgent, gotUA)

	_, err = c.Fetch(ctx, "Rust (nonexistent)")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	_, err = c.Fetch(ctx, "Short")
	assert.True(t, errors.Is(err, ErrFetch), "got %v", err)

	_, err = c.Fetch(ctx, "Server Error")
	assert.True(t, errors.Is(err, ErrFetch), "got %v", err)
}

func TestClientFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	_, err := New(endpoint).Fetch(context.Background(), "Go")
	assert.True(t, errors.Is(err, ErrFetch), "got %v", err)
}
