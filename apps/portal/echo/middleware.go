package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
)

var contextSessionKey = "session"

// hydrateMiddleware builds the navigation's Session snapshot from cookies and
// the profile cache. A token inside the stale window is refreshed proactively,
// and a session that survived a reload with tokens only gets its profile
// re-fetched; either failing clears the session (fail-closed) and the request
// proceeds unauthenticated.
func hydrateMiddleware(c Contract) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			sess := c.Store.Hydrate(req)

			if sess.Authenticated() && c.Store.Stale(sess.AccessToken) {
				c.Store.Refresh(req.Context(), sess, ctx.Response())
			}
			if sess.Authenticated() && sess.Profile == nil {
				_ = c.Store.FetchProfile(req.Context(), sess, ctx.Response())
			}

			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// guardMiddleware evaluates the hydrated session against the contract's route
// policy and redirects before any handler runs. It must run after
// hydrateMiddleware; a missing session means the middleware chain is broken
// and the server cannot be trusted to guard anything.
func guardMiddleware(c Contract) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, ok := ctx.Get(contextSessionKey).(*session.Session)
			if !ok {
				return core.NewShutdownError("session missing from request context")
			}
			if d := c.Policy.Decide(sess, ctx.Request().URL.Path); !d.Allow {
				return ctx.Redirect(http.StatusSeeOther, d.Redirect)
			}
			return next(ctx)
		}
	}
}

func contextSession(ctx echo.Context) *session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(*session.Session); ok {
		return sess
	}
	return new(session.Session)
}
