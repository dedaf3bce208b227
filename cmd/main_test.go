package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/trendrank/internal/adapters/repository"
	"github.com/okian/trendrank/internal/config"
	"github.com/okian/trendrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("TRENDRANK_ADDR", ":8080")
			_ = os.Setenv("TRENDRANK_QUEUE_SIZE", "3")
			_ = os.Setenv("TRENDRANK_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("TRENDRANK_ADDR")
				_ = os.Unsetenv("TRENDRANK_QUEUE_SIZE")
				_ = os.Unsetenv("TRENDRANK_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 3)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building dependencies without a database", func() {
			ctx := context.Background()
			cfg := config.New()
			d, err := buildDeps(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer d.close()

			convey.Convey("Then the source holds generated demo rows", func() {
				snap, err := d.source.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Topics, convey.ShouldNotBeEmpty)
				convey.So(snap.Posts, convey.ShouldNotBeEmpty)
			})

			convey.Convey("Then the board is in memory and nothing needs a ping", func() {
				_, ok := d.board.(*repository.MemoryBoard)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(d.listener, convey.ShouldBeNil)
				convey.So(d.checkers, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When building the engine from configuration", func() {
			cfg := config.New()
			cfg.CredibleKeywords = []string{"oracle"}

			convey.Convey("Then it is creatable", func() {
				convey.So(newEngine(cfg), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainHandler(t *testing.T) {
	convey.Convey("Given a running service behind the HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.RefreshIntervalMS = 50

		d, err := buildDeps(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer d.close()

		svc := newService(cfg, d)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newHandler(ctx, cfg, svc, d.checkers...))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		// Wait for the startup pass.
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			resp := get("/board")
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}

		convey.Convey("Then the leaderboard is served", func() {
			resp := get("/leaderboard?limit=3")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var entries []map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&entries), convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 3)
			convey.So(entries[0]["rank"], convey.ShouldEqual, float64(1))
		})

		convey.Convey("Then health, docs and the dashboard are routed", func() {
			for _, path := range []string{"/healthz", "/readyz", "/stats", "/openapi.yaml", "/api-docs", "/"} {
				resp := get(path)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then a manual refresh is accepted or pushed back", func() {
			resp, err := http.Post(srv.URL+"/refresh", "application/json", strings.NewReader("{}"))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldBeIn, http.StatusAccepted, http.StatusTooManyRequests)
		})
	})
}
