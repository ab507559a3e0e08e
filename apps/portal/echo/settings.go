package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
)

const settingsCacheKey = "school_settings"

// settingsApi serves the school settings (branding, colors, academic-year
// shape) with a short-lived cache in front of the upstream, since every page
// load asks for them.
type settingsApi struct {
	contract Contract
	cache    *cache.Cache
}

func registerSettingsAPI(g *echo.Group, c Contract, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	api := settingsApi{
		contract: c,
		cache:    cache.New(ttl, ttl),
	}

	g.GET("/settings", api.fetch)
	g.GET("/settings/public", api.fetchPublic)
	g.PUT("/admin/settings", api.update)
}

func (api *settingsApi) fetch(ctx echo.Context) error {
	if raw, ok := api.cache.Get(settingsCacheKey); ok {
		return ctx.JSONBlob(http.StatusOK, raw.(json.RawMessage))
	}

	raw, err := api.contract.Gateway.Get(ctx.Request().Context(), contextSession(ctx), ctx.Response(), "/settings/", nil)
	if err != nil {
		return err
	}
	api.cache.SetDefault(settingsCacheKey, raw)
	return ctx.JSONBlob(http.StatusOK, raw)
}

// fetchPublic serves the settings anonymously (login page branding); shares
// the same cache entry.
func (api *settingsApi) fetchPublic(ctx echo.Context) error {
	if raw, ok := api.cache.Get(settingsCacheKey); ok {
		return ctx.JSONBlob(http.StatusOK, raw.(json.RawMessage))
	}

	raw, err := api.contract.Gateway.Do(
		ctx.Request().Context(),
		new(session.Session), // anonymous
		ctx.Response(),
		upstream.Call{Method: http.MethodGet, Path: "/settings/"},
	)
	if err != nil {
		return err
	}
	api.cache.SetDefault(settingsCacheKey, raw)
	return ctx.JSONBlob(http.StatusOK, raw)
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding settings")
	}

	raw, err := api.contract.Gateway.Do(
		ctx.Request().Context(),
		contextSession(ctx),
		ctx.Response(),
		upstream.Call{Method: http.MethodPatch, Path: "/settings/1/", Body: data},
	)
	if err != nil {
		return err
	}
	// replace the cached copy right away
	api.cache.SetDefault(settingsCacheKey, raw)
	return ctx.JSONBlob(http.StatusOK, raw)
}
