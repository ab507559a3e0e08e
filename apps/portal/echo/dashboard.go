package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core/upstream"
)

// registerDashboardAPI wires the role dashboards. Each endpoint is a thin
// proxy: the route guard has already vetted the role, the gateway attaches the
// bearer token and drives the refresh protocol, and the upstream JSON is
// passed through untouched.
func registerDashboardAPI(g *echo.Group, c Contract) {
	api := dashboardApi{contract: c}

	g.GET("/admin", api.proxy("/administration/dashboard/"))
	g.GET("/admin/admissions", api.proxy("/admissions/dashboard-stats/"))

	g.GET("/teacher", api.proxy("/users/teacher/dashboard/"))
	g.GET("/teacher/timetable", api.proxy("/academic/timetable/my-schedule/"))

	g.GET("/parent", api.proxy("/examination/parent/children/"))
	g.GET("/parent/fees/:childID", api.childFees)

	g.GET("/accountant", api.proxy("/financial/fee-breakdown/"))
	g.GET("/accountant/class-status", api.proxy("/financial/class-payment-status/"))
}

type dashboardApi struct {
	contract Contract
}

func (api *dashboardApi) proxy(upstreamPath string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
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
}

func (api *dashboardApi) childFees(ctx echo.Context) error {
	path := fmt.Sprintf("/examination/parent/fees/child/%s/", ctx.Param("childID"))
	return api.proxy(path)(ctx)
}
