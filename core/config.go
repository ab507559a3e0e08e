package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	ServerConfig struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	UpstreamConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		AccessTokenMaxAge  time.Duration
		RefreshTokenMaxAge time.Duration
		// RefreshStaleWindow is how long before the access token's expiry
		// a hydrated session gets refreshed proactively.
		RefreshStaleWindow time.Duration
	}

	Config struct {
		Debug        bool
		TestMode     bool
		AppName      string
		Env          string
		Build        string
		RollbarToken string

		Server   ServerConfig
		Upstream UpstreamConfig
		Session  SessionConfig

		SettingsCacheTTL time.Duration
	}
)

func init() {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Academia")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.addr", ":3000")
	conf.SetDefault("server.shutdownTimeout", 20*time.Second)
	conf.SetDefault("upstream.baseURL", "http://localhost:8000/v1")
	conf.SetDefault("upstream.timeout", 30*time.Second)
	conf.SetDefault("session.accessTokenMaxAge", 7*24*time.Hour)
	conf.SetDefault("session.refreshTokenMaxAge", 30*24*time.Hour)
	conf.SetDefault("session.refreshStaleWindow", 4*time.Hour)
	conf.SetDefault("settingsCacheTTL", 30*time.Minute)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	Conf = &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     testMode,
		AppName:      conf.GetString("appName"),
		Env:          env,
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Addr:            conf.GetString("server.addr"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Upstream: UpstreamConfig{
			BaseURL: conf.GetString("upstream.baseURL"),
			Timeout: conf.GetDuration("upstream.timeout"),
		},
		Session: SessionConfig{
			AccessTokenMaxAge:  conf.GetDuration("session.accessTokenMaxAge"),
			RefreshTokenMaxAge: conf.GetDuration("session.refreshTokenMaxAge"),
			RefreshStaleWindow: conf.GetDuration("session.refreshStaleWindow"),
		},
		SettingsCacheTTL: conf.GetDuration("settingsCacheTTL"),
	}
}
