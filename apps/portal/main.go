package main

import (
	"log"
	"os"

	echoapi "github.com/trezcool/academia/apps/portal/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/gateway"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
	logsvc "github.com/trezcool/academia/services/logger"
)

func main() {
	std := log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}
	logger.Enable(!core.Conf.Debug)

	api := upstream.NewClient(core.Conf.Upstream.BaseURL, core.Conf.Upstream.Timeout)
	secure := !core.Conf.Debug

	primaryStore := session.NewStore(session.Options{
		API:    api,
		Logger: logger,
		Conf:   core.Conf.Session,
		Cookies: session.CookieNames{
			Access:  "auth_token",
			Refresh: "refresh_token",
		},
		Paths: session.Paths{
			Login:   "/users/login/",
			Refresh: "/token/refresh/",
			Profile: "/users/profile/",
		},
		SecureCookies: secure,
	})

	studentStore := session.NewStore(session.Options{
		API:    api,
		Logger: logger,
		Conf:   core.Conf.Session,
		Cookies: session.CookieNames{
			Access:  "student_auth_token",
			Refresh: "student_refresh_token",
		},
		Paths: session.Paths{
			Login:          "/academic/students/auth/login/",
			Register:       "/academic/students/auth/register/",
			ChangePassword: "/academic/students/auth/change-password/",
			Refresh:        "/token/refresh/",
			Profile:        "/academic/students/portal/profile/",
		},
		ProfileKey:    "student",
		SecureCookies: secure,
	})

	app := echoapi.NewServer(&echoapi.Options{
		Addr:   core.Conf.Server.Addr,
		Logger: logger,
		Primary: echoapi.Contract{
			Store:   primaryStore,
			Gateway: gateway.NewClient(api, primaryStore),
			Policy:  echoapi.PrimaryPolicy(),
		},
		Student: echoapi.Contract{
			Store:   studentStore,
			Gateway: gateway.NewClient(api, studentStore),
			Policy:  echoapi.StudentPolicy(),
		},
		SettingsTTL: core.Conf.SettingsCacheTTL,
	})
	app.Start()
}
