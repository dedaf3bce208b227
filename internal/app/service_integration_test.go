package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/trendrank/internal/adapters/repository"
	service "github.com/okian/trendrank/internal/app"
	"github.com/okian/trendrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeListener forwards whatever is sent on changes to the service.
type fakeListener struct {
	changes chan string
	err     error
}

func (f *fakeListener) Run(ctx context.Context, onChange func(string)) error {
	if f.err != nil {
		return f.err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-f.changes:
			onChange(p)
		}
	}
}

func topTopic(ctx context.Context, svc *service.Service) string {
	top, err := svc.TopN(ctx, 1)
	if err != nil || len(top) == 0 {
		return ""
	}
	return top[0].TopicID
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service listening for changes", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		source := repository.NewStaticSource(fixture())
		listener := &fakeListener{changes: make(chan string)}
		svc := service.New(source, repository.NewMemoryBoard(),
			service.WithWorkerCount(2),
			service.WithRefreshInterval(0),
			service.WithListener(listener),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		So(waitFor(func() bool { return topTopic(ctx, svc) == "rates" }), ShouldBeTrue)

		Convey("When new rows make another topic lead and a change is announced", func() {
			next := fixture()
			next.Topics[0].AggregateVelocityScore = 1000
			next.Topics[0].TotalPosts = 1000
			next.Posts = append(next.Posts,
				model.Post{PostID: "p3", AuthorID: "econ", TopicID: "meme", Platform: "truthsocial", PostTimestamp: base.Add(-time.Hour)},
			)
			source.Replace(next)
			listener.changes <- "posts"

			Convey("Then the board follows", func() {
				So(waitFor(func() bool { return topTopic(ctx, svc) == "meme" }), ShouldBeTrue)

				meme, err := svc.Topic(ctx, "meme")
				So(err, ShouldBeNil)
				So(meme.Rank, ShouldEqual, 1)
				So(meme.TotalUniqueAuthors, ShouldEqual, 2)
				So(meme.VerifiedSourceCount, ShouldEqual, 1)
				So(meme.SignalReason, ShouldEndWith, "(1 verified source)")
			})
		})

		Convey("When a manual refresh is requested", func() {
			before := svc.GetStats()["passes"].(int64)
			ok := svc.Refresh(ctx, model.ReasonManual)

			Convey("Then another pass runs", func() {
				So(ok, ShouldBeTrue)
				So(waitFor(func() bool {
					return svc.GetStats()["passes"].(int64) > before
				}), ShouldBeTrue)
			})
		})

		Convey("When querying unknown topics and bad limits", func() {
			_, err := svc.Topic(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestServicePolling(t *testing.T) {
	Convey("Given a service polling every few milliseconds", t, func() {
		ctx := context.Background()
		source := repository.NewStaticSource(fixture())
		svc := service.New(source, repository.NewMemoryBoard(), service.WithRefreshInterval(5*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then changes are picked up without notifications", func() {
			So(waitFor(func() bool { return topTopic(ctx, svc) == "rates" }), ShouldBeTrue)

			next := fixture()
			next.Topics = next.Topics[:1]
			source.Replace(next)

			So(waitFor(func() bool {
				b, err := svc.Board(ctx)
				return err == nil && len(b.Topics) == 1
			}), ShouldBeTrue)
		})
	})
}

func TestServiceListenerFailure(t *testing.T) {
	Convey("Given a listener that cannot connect", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewStaticSource(fixture()), repository.NewMemoryBoard(),
			service.WithRefreshInterval(5*time.Millisecond),
			service.WithListener(&fakeListener{err: errors.New("connection refused")}),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then polling still keeps the board fresh", func() {
			So(waitFor(func() bool { return topTopic(ctx, svc) == "rates" }), ShouldBeTrue)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service with a published board", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewStaticSource(fixture()), repository.NewMemoryBoard(),
			service.WithWorkerCount(4),
			service.WithRefreshInterval(time.Millisecond),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(waitFor(func() bool { return topTopic(ctx, svc) != "" }), ShouldBeTrue)

		Convey("When many goroutines read while passes keep publishing", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			var failures int
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						b, err := svc.Board(ctx)
						if err != nil || len(b.Topics) != 2 || b.Topics[0].Rank != 1 {
							mu.Lock()
							failures++
							mu.Unlock()
						}
						svc.Refresh(ctx, model.ReasonManual)
					}
				}()
			}
			wg.Wait()

			Convey("Then every read sees a complete board", func() {
				So(failures, ShouldEqual, 0)
			})
		})
	})
}

// gatedSource blocks every load until release is closed.
type gatedSource struct {
	release chan struct{}
	mu      sync.Mutex
	loads   int
}

func (g *gatedSource) Load(ctx context.Context) (model.Snapshot, error) {
	g.mu.Lock()
	g.loads++
	g.mu.Unlock()
	select {
	case <-g.release:
		return fixture(), nil
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	}
}

func (g *gatedSource) started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loads > 0
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose only worker is busy", t, func() {
		ctx := context.Background()
		source := &gatedSource{release: make(chan struct{})}
		svc := service.New(source, repository.NewMemoryBoard(),
			service.WithWorkerCount(1),
			service.WithRefreshInterval(0),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(waitFor(source.started), ShouldBeTrue)

		Convey("When refreshes are requested in a burst", func() {
			accepted := 0
			for i := 0; i < 100; i++ {
				if svc.Refresh(ctx, model.ReasonManual) {
					accepted++
				}
			}
			close(source.release)

			Convey("Then they coalesce into one pending pass", func() {
				So(accepted, ShouldEqual, 1)
			})
		})
	})
}
