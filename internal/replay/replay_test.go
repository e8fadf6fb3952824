package replay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/auscult/internal/adapters/http/api"
	service "github.com/okian/auscult/internal/app"
	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/replay"
	"github.com/okian/auscult/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const capture = `{"sessionId":"cap-1","events":[
	{"timestamp":1000,"sourceApp":"com.leclerc.drive","rawKind":"click","element":{"text":"Ajouter au panier"},"productHints":{"price":"2,50€"}},
	{"timestamp":2000,"sourceApp":"com.leclerc.drive","rawKind":"add-to-cart","productHints":{"productName":"Bananes bio"}},
	{"timestamp":2100,"sourceApp":"com.leclerc.drive","rawKind":"add-to-cart","productHints":{"productName":"Bananes bio"}}
]}`

func TestReplayAgainstService(t *testing.T) {
	convey.Convey("Given a running service behind an HTTP server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithFilterOptions(dedupe.WithHold(0)))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("When the capture is replayed in batches of two", func() {
			rep, stats, err := replay.Run(ctx, replay.Config{
				BaseURL:   srv.URL,
				BatchSize: 2,
				Flush:     true,
				Events:    true,
			}, []byte(capture))

			convey.Convey("Then every batch lands in the capture's session", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.SessionID, convey.ShouldEqual, "cap-1")
				convey.So(stats.Batches, convey.ShouldEqual, 2)
				convey.So(stats.Accepted, convey.ShouldEqual, 3)
				convey.So(stats.Retries, convey.ShouldEqual, 0)
			})

			convey.Convey("Then the report reflects the deduplicated session", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rep.SessionID, convey.ShouldEqual, "cap-1")
				convey.So(rep.Events, convey.ShouldHaveLength, 2)
				convey.So(rep.CategorizedEvents[0].Category, convey.ShouldEqual, model.AddToCart)
			})
		})

		convey.Convey("When a session ID is forced", func() {
			rep, stats, err := replay.Run(ctx, replay.Config{BaseURL: srv.URL, SessionID: "forced"}, []byte(capture))

			convey.Convey("Then it overrides the capture's own", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.SessionID, convey.ShouldEqual, "forced")
				convey.So(rep.SessionID, convey.ShouldEqual, "forced")
				convey.So(rep.Events, convey.ShouldBeEmpty)
			})
		})
	})
}

// fakeService answers just enough of the API for the client paths.
type fakeService struct {
	rejectFirst bool
	batches     int
	posts       atomic.Int32
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"started":true}`))
	})
	mux.HandleFunc("POST /sessions/{id}/events", func(w http.ResponseWriter, _ *http.Request) {
		if f.posts.Add(1) == 1 && f.rejectFirst {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"rate_limited","message":"slow down"}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued","events":3}`))
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sessionId":"` + r.PathValue("id") + `","batches":` + strconv.Itoa(f.batches) + `}`))
	})
	mux.HandleFunc("GET /sessions/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sessionId":"` + r.PathValue("id") + `"}`))
	})
	return mux
}

func TestReplayClientPaths(t *testing.T) {
	convey.Convey("Given a fake service", t, func() {
		ctx := context.Background()

		convey.Convey("When the first batch is rate limited", func() {
			fake := &fakeService{rejectFirst: true, batches: 1}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			rep, stats, err := replay.Run(ctx, replay.Config{BaseURL: srv.URL, SessionID: "s1"}, []byte(capture))

			convey.Convey("Then the batch is retried", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Retries, convey.ShouldEqual, 1)
				convey.So(fake.posts.Load(), convey.ShouldEqual, 2)
				convey.So(rep.SessionID, convey.ShouldEqual, "s1")
			})
		})

		convey.Convey("When retries are exhausted", func() {
			fake := &fakeService{rejectFirst: true, batches: 1}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			_, _, err := replay.Run(ctx, replay.Config{BaseURL: srv.URL, MaxRetries: -1}, []byte(capture))

			convey.Convey("Then the status error surfaces", func() {
				convey.So(errors.Is(err, replay.ErrUnexpectedStatus), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "rate_limited")
			})
		})

		convey.Convey("When the session never catches up", func() {
			fake := &fakeService{batches: 0}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			_, _, err := replay.Run(ctx, replay.Config{BaseURL: srv.URL, Settle: 100 * time.Millisecond}, []byte(capture))

			convey.Convey("Then the run reports it did not settle", func() {
				convey.So(errors.Is(err, replay.ErrNotSettled), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the capture is not a batch", func() {
			_, _, err := replay.Run(ctx, replay.Config{BaseURL: "http://127.0.0.1:1"}, []byte(`"nope"`))

			convey.Convey("Then it is rejected before any request", func() {
				convey.So(errors.Is(err, model.ErrMalformedBatch), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the service is down", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()

			_, _, err := replay.Run(ctx, replay.Config{BaseURL: url, Timeout: time.Second}, []byte(capture))

			convey.Convey("Then the health check fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
			})
		})
	})
}
