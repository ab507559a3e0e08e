// Package gateway wraps every outbound data call to the upstream API: it
// attaches the session's bearer credential and transparently recovers from a
// single authorization failure per logical call via the refresh protocol.
//
// Two instances exist side by side, one bound to the primary session store and
// one to the student store; the two never share tokens.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
)

type Client struct {
	api   *upstream.Client
	store *session.Store
}

func NewClient(api *upstream.Client, store *session.Store) *Client {
	return &Client{api: api, store: store}
}

// Do dispatches call on behalf of sess.
//
// On an AuthExpired outcome with no retry marker set, it runs the refresh
// exchange once; if that succeeds the call is cloned, re-armed with the new
// access token, marked retried and dispatched exactly once more — that second
// outcome is final whatever it is. If the refresh fails, the original
// AuthExpired error propagates (the session has already been cleared as a side
// effect). A marked call is never refreshed again: at most one refresh attempt
// per logical request, however many 401s the server keeps returning.
//
// Every non-auth outcome (2xx, non-401 4xx, 5xx, network error) is returned
// as-is without touching the session.
func (c *Client) Do(ctx context.Context, sess *session.Session, w http.ResponseWriter, call upstream.Call) (json.RawMessage, error) {
	if sess.Authenticated() {
		call.Bearer = sess.AccessToken
	}

	raw, err := c.api.Do(ctx, call)
	if err == nil {
		return raw, nil
	}
	if upstream.KindOf(err) != upstream.AuthExpired || call.Retried {
		return nil, err
	}

	if !c.store.Refresh(ctx, sess, w) {
		return nil, err
	}

	retry := call
	retry.Bearer = sess.AccessToken
	retry.Retried = true
	return c.api.Do(ctx, retry)
}

// Get is a convenience wrapper around Do.
func (c *Client) Get(ctx context.Context, sess *session.Session, w http.ResponseWriter, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, sess, w, upstream.Call{Method: http.MethodGet, Path: path, Query: query})
}

// Post is a convenience wrapper around Do.
func (c *Client) Post(ctx context.Context, sess *session.Session, w http.ResponseWriter, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, sess, w, upstream.Call{Method: http.MethodPost, Path: path, Body: body})
}
