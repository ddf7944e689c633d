package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/outwit/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.RecomputeTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := []func(*config.Config){
			func(c *config.Config) { c.Addr = "" },
			func(c *config.Config) { c.LogFormat = "xml" },
			func(c *config.Config) { c.Store = "redis" },
			func(c *config.Config) { c.Store = config.StorePostgres },
			func(c *config.Config) { c.QueueSize = 0 },
			func(c *config.Config) { c.WorkerCount = -1 },
			func(c *config.Config) { c.DedupeSize = 0 },
			func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			func(c *config.Config) { c.RecomputeTimeoutMS = -5 },
		}

		convey.Convey("Then each is rejected as invalid", func() {
			for _, mutate := range cases {
				cfg := config.New(context.Background())
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then postgres with a DSN is accepted", func() {
			cfg := config.New(context.Background())
			cfg.Store = config.StorePostgres
			cfg.PostgresDSN = "postgres://outwit@localhost:5432/outwit?sslmode=disable"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
