package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/notecache/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1<<20)
			convey.So(cfg.Watch, convey.ShouldBeTrue)
		})

		convey.Convey("And the required options should be empty", func() {
			convey.So(cfg.Host, convey.ShouldBeEmpty)
			convey.So(cfg.Port, convey.ShouldBeEmpty)
			convey.So(cfg.CacheDir, convey.ShouldBeEmpty)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a complete config", t, func() {
		cfg := config.New(context.Background())
		cfg.Host, cfg.Port, cfg.CacheDir = "127.0.0.1", "3000", "./cache"

		convey.Convey("Then it should validate and join the address", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Addr(), convey.ShouldEqual, "127.0.0.1:3000")
		})

		convey.Convey("When the host is missing", func() {
			cfg.Host = ""
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "server address (host)")
		})

		convey.Convey("When the port is missing", func() {
			cfg.Port = " "
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "server port number")
		})

		convey.Convey("When the port is not a number", func() {
			cfg.Port = "99999999"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the cache directory is missing", func() {
			cfg.CacheDir = ""
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "directory with cached files")
		})

		convey.Convey("When the body cap is not positive", func() {
			cfg.MaxBodyBytes = 0
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "max_body_bytes")
		})

		convey.Convey("When the host is an IPv6 literal", func() {
			cfg.Host = "::1"
			convey.So(cfg.Addr(), convey.ShouldEqual, "[::1]:3000")
		})
	})
}
