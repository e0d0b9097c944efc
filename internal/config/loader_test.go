package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/notecache/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When nothing supplies the required options", func() {
			cfg, err := config.Load(ctx, "", nil)

			convey.Convey("Then it should fail validation", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "host")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("NOTECACHE_HOST", "0.0.0.0")
			_ = os.Setenv("NOTECACHE_PORT", "8080")
			_ = os.Setenv("NOTECACHE_CACHE", "/var/cache/notes")
			_ = os.Setenv("NOTECACHE_MAX_BODY_BYTES", "4096")
			_ = os.Setenv("NOTECACHE_WATCH", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "", nil)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "0.0.0.0")
				convey.So(cfg.Port, convey.ShouldEqual, "8080")
				convey.So(cfg.CacheDir, convey.ShouldEqual, "/var/cache/notes")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 4096)
				convey.So(cfg.Watch, convey.ShouldBeFalse)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(t, `
host: "127.0.0.1"
port: 3000
cache: "./cache"
log_level: debug
log_format: json
`)
			cfg, err := config.Load(ctx, tmpFile, nil)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "127.0.0.1")
				convey.So(cfg.Port, convey.ShouldEqual, "3000")
				convey.So(cfg.CacheDir, convey.ShouldEqual, "./cache")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the file path comes from NOTECACHE_CONFIG", func() {
			tmpFile := createTempConfigFile(t, "host: localhost\nport: \"9000\"\ncache: /tmp/n\n")
			_ = os.Setenv("NOTECACHE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "", nil)

			convey.Convey("Then the file should be used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr(), convey.ShouldEqual, "localhost:9000")
			})
		})

		convey.Convey("When file, env and flags all set the same key", func() {
			tmpFile := createTempConfigFile(t, "host: filehost\nport: 1111\ncache: /file/cache\n")
			_ = os.Setenv("NOTECACHE_PORT", "2222")
			_ = os.Setenv("NOTECACHE_CACHE", "/env/cache")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile, config.Overrides{config.KeyCache: "/flag/cache"})

			convey.Convey("Then flags beat env and env beats the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "filehost")
				convey.So(cfg.Port, convey.ShouldEqual, "2222")
				convey.So(cfg.CacheDir, convey.ShouldEqual, "/flag/cache")
			})
		})

		convey.Convey("When only flags are supplied", func() {
			cfg, err := config.Load(ctx, "", config.Overrides{
				config.KeyHost:  "127.0.0.1",
				config.KeyPort:  "3000",
				config.KeyCache: "./cache",
			})

			convey.Convey("Then the config should be complete", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr(), convey.ShouldEqual, "127.0.0.1:3000")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			cfg, err := config.Load(ctx, tmpFile, nil)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.Load(ctx, "/non/existent/file.yaml", nil)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric option is not a number", func() {
			_ = os.Setenv("NOTECACHE_MAX_BODY_BYTES", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "", config.Overrides{
				config.KeyHost: "h", config.KeyPort: "1", config.KeyCache: "c",
			})

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"NOTECACHE_CONFIG",
		"NOTECACHE_HOST",
		"NOTECACHE_PORT",
		"NOTECACHE_CACHE",
		"NOTECACHE_LOG_LEVEL",
		"NOTECACHE_LOG_FORMAT",
		"NOTECACHE_MAX_BODY_BYTES",
		"NOTECACHE_WATCH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notecache.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
