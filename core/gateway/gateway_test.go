package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
)

// fakeAPI serves one data route plus the refresh exchange, with per-route
// call counters and switchable failure modes.
type fakeAPI struct {
	*httptest.Server

	dataCalls    int
	refreshCalls int
	dataBearers  []string // Authorization header of each data call, in order

	alwaysExpired bool // data route returns 401 no matter the token
	failRefresh   bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token/refresh/":
			f.refreshCalls++
			if f.failRefresh {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail": "token is invalid or expired"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access": "fresh"}`))
		case "/academic/timetable/my-schedule/":
			f.dataCalls++
			f.dataBearers = append(f.dataBearers, r.Header.Get("Authorization"))
			if f.alwaysExpired || r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail": "token expired"}`))
				return
			}
			_, _ = w.Write([]byte(`{"days": []}`))
		case "/academic/classrooms/missing/":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "not found"}`))
		case "/administration/dashboard/":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail": "you do not have permission to perform this action"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func newTestClient(f *fakeAPI) *Client {
	api := upstream.NewClient(f.URL, 5*time.Second)
	store := session.NewStore(session.Options{
		API: api,
		Conf: core.SessionConfig{
			AccessTokenMaxAge:  7 * 24 * time.Hour,
			RefreshTokenMaxAge: 30 * 24 * time.Hour,
		},
		Cookies: session.CookieNames{Access: "auth_token", Refresh: "refresh_token"},
		Paths:   session.Paths{Refresh: "/token/refresh/"},
	})
	return NewClient(api, store)
}

func Test_Client_Do_refreshAndRetryOnce(t *testing.T) {
	f := newFakeAPI(t)
	client := newTestClient(f)
	sess := &session.Session{AccessToken: "stale", RefreshToken: "ref1"}
	rec := httptest.NewRecorder()

	raw, err := client.Get(context.Background(), sess, rec, "/academic/timetable/my-schedule/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"days": []}`, string(raw))

	// one 401, one refresh, one retry with the new bearer
	assert.Equal(t, 1, f.refreshCalls)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, f.dataBearers)
	assert.Equal(t, "fresh", sess.AccessToken)
}

func Test_Client_Do_atMostOneRefreshPerCall(t *testing.T) {
	f := newFakeAPI(t)
	f.alwaysExpired = true
	client := newTestClient(f)
	sess := &session.Session{AccessToken: "stale", RefreshToken: "ref1"}
	rec := httptest.NewRecorder()

	_, err := client.Get(context.Background(), sess, rec, "/academic/timetable/my-schedule/", nil)
	require.Error(t, err)
	assert.Equal(t, upstream.AuthExpired, upstream.KindOf(err))

	// the retried call's 401 is final: no second refresh, no third dispatch
	assert.Equal(t, 1, f.refreshCalls)
	assert.Equal(t, 2, f.dataCalls)
}

func Test_Client_Do_refreshFailureSurfacesOriginalError(t *testing.T) {
	f := newFakeAPI(t)
	f.failRefresh = true
	client := newTestClient(f)
	sess := &session.Session{AccessToken: "stale", RefreshToken: "expired"}
	rec := httptest.NewRecorder()

	_, err := client.Get(context.Background(), sess, rec, "/academic/timetable/my-schedule/", nil)
	require.Error(t, err)

	// the caller sees the data call's own 401, not the refresh exchange's
	uerr, ok := upstream.ErrorOf(err)
	require.True(t, ok)
	assert.Equal(t, upstream.AuthExpired, uerr.Kind)
	assert.Equal(t, "token expired", uerr.Summary)

	// no retry happened and the failed refresh cleared the session
	assert.Equal(t, 1, f.dataCalls)
	assert.False(t, sess.Authenticated())
}

func Test_Client_Do_notFoundLeavesSessionIntact(t *testing.T) {
	f := newFakeAPI(t)
	client := newTestClient(f)
	sess := &session.Session{AccessToken: "stale", RefreshToken: "ref1"}
	rec := httptest.NewRecorder()

	_, err := client.Get(context.Background(), sess, rec, "/academic/classrooms/missing/", nil)
	require.Error(t, err)
	assert.Equal(t, upstream.NotFound, upstream.KindOf(err))

	// 404 never triggers the refresh protocol
	assert.Equal(t, 0, f.refreshCalls)
	assert.Equal(t, "stale", sess.AccessToken)
	assert.Equal(t, "ref1", sess.RefreshToken)
}

func Test_Client_Do_forbiddenLeavesSessionIntact(t *testing.T) {
	f := newFakeAPI(t)
	client := newTestClient(f)
	sess := &session.Session{AccessToken: "stale", RefreshToken: "ref1"}
	rec := httptest.NewRecorder()

	_, err := client.Get(context.Background(), sess, rec, "/administration/dashboard/", nil)
	require.Error(t, err)
	assert.Equal(t, upstream.Forbidden, upstream.KindOf(err))

	// a permission failure says nothing about the token: no refresh, no logout
	assert.Equal(t, 0, f.refreshCalls)
	assert.Equal(t, "stale", sess.AccessToken)
	assert.Equal(t, "ref1", sess.RefreshToken)
}

func Test_Client_Do_anonymousCallsAreNotRefreshed(t *testing.T) {
	f := newFakeAPI(t)
	client := newTestClient(f)
	sess := new(session.Session)
	rec := httptest.NewRecorder()

	_, err := client.Get(context.Background(), sess, rec, "/academic/timetable/my-schedule/", nil)
	require.Error(t, err)
	assert.Equal(t, upstream.AuthExpired, upstream.KindOf(err))

	// no bearer, no refresh token: fail closed without a refresh exchange
	assert.Equal(t, 0, f.refreshCalls)
	assert.Equal(t, []string{""}, f.dataBearers)
}
