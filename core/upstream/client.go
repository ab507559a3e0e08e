// Package upstream is the HTTP boundary with the remote school-management REST
// API. It speaks JSON, attaches bearer credentials and normalizes every error
// payload shape the API is known to produce into one canonical Error.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Call describes one logical request to the upstream API.
//
// Retried is the retry marker: it is set by the gateway after a
// refresh-then-retry and bounds the recovery protocol to a depth of exactly
// one, no matter how many 401s the server keeps returning.
type Call struct {
	Method  string
	Path    string // joined to the client's base URL
	Query   url.Values
	Body    interface{} // JSON-encoded when non-nil
	Bearer  string      // access token; empty means anonymous
	Retried bool
}

type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client rooted at baseURL. A custom *http.Client may be
// passed (used by tests to stub the transport); otherwise a default one with
// the given timeout is used.
func NewClient(baseURL string, timeout time.Duration, client ...*http.Client) *Client {
	hc := &http.Client{Timeout: timeout}
	if len(client) > 0 && client[0] != nil {
		hc = client[0]
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: hc,
	}
}

// BaseURL returns the root URL calls are joined to.
func (c *Client) BaseURL() string { return c.base }

// Do dispatches call and returns the raw response body on success.
// Any failure is returned as an *Error: transport errors map to NetworkFailure,
// error statuses are normalized from the response payload.
func (c *Client) Do(ctx context.Context, call Call) (json.RawMessage, error) {
	var body bytes.Buffer
	if call.Body != nil {
		if err := json.NewEncoder(&body).Encode(call.Body); err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
	}

	rawURL := c.base + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		rawURL += "?" + call.Query.Encode()
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, &body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+call.Bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: NetworkFailure, Summary: err.Error()}
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: NetworkFailure, Summary: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, newError(resp.StatusCode, data)
	}
	return data, nil
}
