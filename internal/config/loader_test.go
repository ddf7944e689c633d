package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/outwit/internal/config"
)

var configEnvVars = []string{
	"OUTWIT_CONFIG",
	"OUTWIT_ADDR",
	"OUTWIT_STORE",
	"OUTWIT_POSTGRES_DSN",
	"OUTWIT_QUEUE_SIZE",
	"OUTWIT_WORKER_COUNT",
	"OUTWIT_LOG_FORMAT",
	"OUTWIT_RECOMPUTE_TIMEOUT_MS",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("OUTWIT_ADDR", ":8080")
			_ = os.Setenv("OUTWIT_QUEUE_SIZE", "64")
			_ = os.Setenv("OUTWIT_WORKER_COUNT", "3")
			_ = os.Setenv("OUTWIT_LOG_FORMAT", "json")
			_ = os.Setenv("OUTWIT_RECOMPUTE_TIMEOUT_MS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.RecomputeTimeoutMS, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with a YAML file and env on top", func() {
			path := filepath.Join(t.TempDir(), "outwit.yaml")
			convey.So(os.WriteFile(path, []byte(
				"store: postgres\npostgres_dsn: postgres://file@db/outwit\nseed_file: season.yaml\nworker_count: 2\n",
			), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("OUTWIT_CONFIG", path)
			_ = os.Setenv("OUTWIT_WORKER_COUNT", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file applies and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://file@db/outwit")
				convey.So(cfg.SeedFile, convey.ShouldEqual, "season.yaml")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("OUTWIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the postgres store is selected without a DSN", func() {
			_ = os.Setenv("OUTWIT_STORE", "postgres")
			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
