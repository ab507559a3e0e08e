package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
)

// studentApi is the student portal surface. It runs against its own session
// store, gateway and policy; nothing here can touch the primary contract's
// tokens.
type studentApi struct {
	contract Contract
}

func registerStudentAPI(g *echo.Group, c Contract) {
	api := studentApi{contract: c}

	// reachable without a student session
	g.POST("/login", api.login)
	g.POST("/register", api.register)

	// student session required (policy default)
	g.POST("/logout", api.logout)
	g.POST("/change-password", api.changePassword)
	g.GET("", api.dashboard)
	g.GET("/timetable", api.timetable)
	g.GET("/profile", api.profile)
}

func (api *studentApi) login(ctx echo.Context) error {
	var data StudentLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentLoginRequest")
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

func (api *studentApi) register(ctx echo.Context) error {
	var data StudentRegisterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentRegisterRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sess, err := api.contract.Store.Register(ctx.Request().Context(), ctx.Response(), &data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess.Profile)
}

func (api *studentApi) logout(ctx echo.Context) error {
	api.contract.Store.Logout(contextSession(ctx), ctx.Response())
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) changePassword(ctx echo.Context) error {
	var data StudentChangePasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentChangePasswordRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.contract.Store.ChangePassword(ctx.Request().Context(), contextSession(ctx), &data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password changed successfully!"})
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	return api.proxy(ctx, "/academic/students/portal/dashboard/")
}

func (api *studentApi) timetable(ctx echo.Context) error {
	return api.proxy(ctx, "/academic/timetable/my-schedule/")
}

func (api *studentApi) profile(ctx echo.Context) error {
	sess := contextSession(ctx)
	if sess.State() != session.AuthenticatedWithProfile {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, sess.Profile)
}

func (api *studentApi) proxy(ctx echo.Context, upstreamPath string) error {
	raw, err := api.contract.Gateway.Do(
		ctx.Request().Context(),
		contextSession(ctx),
		ctx.Response(),
		upstream.Call{Method: http.MethodGet, Path: upstreamPath, Query: ctx.QueryParams()},
	)
	if err != nil {
		return err
	}
	return ctx.JSONBlob(http.StatusOK, raw)
}
