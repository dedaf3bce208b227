package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/trendrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	config.EnvConfigFile,
	"TRENDRANK_ADDR",
	"TRENDRANK_BOARD_BACKEND",
	"TRENDRANK_REFRESH_INTERVAL_MS",
	"TRENDRANK_WORKER_COUNT",
	"TRENDRANK_VELOCITY_WEIGHT",
	"TRENDRANK_CREDIBLE_KEYWORDS",
	"TRENDRANK_DATABASE_URL",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
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
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRENDRANK_ADDR", ":8080")
			_ = os.Setenv("TRENDRANK_REFRESH_INTERVAL_MS", "250")
			_ = os.Setenv("TRENDRANK_WORKER_COUNT", "3")
			_ = os.Setenv("TRENDRANK_VELOCITY_WEIGHT", "0.6")
			_ = os.Setenv("TRENDRANK_CREDIBLE_KEYWORDS", "reporter,editor")
			_ = os.Setenv("TRENDRANK_DATABASE_URL", "postgres://localhost/trends?sslmode=disable")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RefreshIntervalMS, convey.ShouldEqual, 250)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.VelocityWeight, convey.ShouldEqual, 0.6)
				convey.So(cfg.CredibleKeywords, convey.ShouldResemble, []string{"reporter", "editor"})
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://localhost/trends?sslmode=disable")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "trendrank.yaml")
			yaml := []byte("addr: \":7070\"\nboard_backend: redis\nredis_key: test:board\nbonus_weight: 0.5\n")
			convey.So(os.WriteFile(path, yaml, 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvConfigFile, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should read the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.BoardBackend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.RedisKey, convey.ShouldEqual, "test:board")
				convey.So(cfg.BonusWeight, convey.ShouldEqual, 0.5)
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("TRENDRANK_ADDR", ":6060")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When keywords are listed with spaces and empty items", func() {
			_ = os.Setenv("TRENDRANK_CREDIBLE_KEYWORDS", " analyst , reporter,,")

			cfg, err := config.Load(ctx)

			convey.Convey("Then each keyword is trimmed and empty items are dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CredibleKeywords, convey.ShouldResemble, []string{"analyst", "reporter"})
			})
		})

		convey.Convey("When keywords come from a YAML list", func() {
			path := filepath.Join(t.TempDir(), "keywords.yaml")
			convey.So(os.WriteFile(path, []byte("credible_keywords: [reporter, anchor]\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvConfigFile, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then the list is kept as is", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CredibleKeywords, convey.ShouldResemble, []string{"reporter", "anchor"})
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an env var makes the config invalid", func() {
			_ = os.Setenv("TRENDRANK_BOARD_BACKEND", "etcd")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
