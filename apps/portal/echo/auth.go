package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/session"
)

type authApi struct {
	contract Contract
}

func registerAuthAPI(g *echo.Group, c Contract) {
	api := authApi{contract: c}

	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.POST("/token-refresh", api.refreshToken)
	g.GET("/profile", api.profile)
}

// login exchanges credentials against the upstream API; on success the token
// cookies are installed on the response and the profile is returned. A failed
// login leaves any prior session untouched.
func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sess, err := api.contract.Store.Login(ctx.Request().Context(), ctx.Response(), &data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Profile)
}

// logout clears the session synchronously; no upstream call involved. Safe to
// call repeatedly.
func (api *authApi) logout(ctx echo.Context) error {
	api.contract.Store.Logout(contextSession(ctx), ctx.Response())
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	if !api.contract.Store.Refresh(ctx.Request().Context(), contextSession(ctx), ctx.Response()) {
		return errUnauthorized
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) profile(ctx echo.Context) error {
	sess := contextSession(ctx)
	if sess.State() != session.AuthenticatedWithProfile {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, sess.Profile)
}
