package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
	"github.com/alfredjeanlab/warroom/internal/store/local"
)

type brokenAdapter struct{ store.Adapter }

func (brokenAdapter) Put(context.Context, model.Category, model.Record) error {
	return &store.RemoteError{Op: "create", Category: model.CategoryPresence, Err: errors.New("offline")}
}

func TestInstrumentedAdapter(t *testing.T) {
	Convey("Given an instrumented local adapter", t, func() {
		m := NewManager()
		s := store.New(m.Instrument(local.New(kv.NewMemory(), nil)), nil)
		ctx := context.Background()

		Convey("When records are created and listed", func() {
			_, err := s.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityOnline})
			So(err, ShouldBeNil)
			_, err = s.ListAll(ctx, model.CategoryPresence)
			So(err, ShouldBeNil)

			Convey("Then operations are counted by op and result", func() {
				So(testutil.ToFloat64(m.storeOps.WithLabelValues("local", "create", "activities", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.storeOps.WithLabelValues("local", "list", "activities", "ok")), ShouldEqual, 1)
			})
		})

		Convey("When a subscription is attached and released", func() {
			stop, err := s.SubscribeToChanges(ctx, model.CategoryHostile, func() {})
			So(err, ShouldBeNil)
			So(testutil.ToFloat64(m.subscriptions.WithLabelValues("mobHits")), ShouldEqual, 1)
			stop()
			stop()

			Convey("Then the gauge returns to zero once", func() {
				So(testutil.ToFloat64(m.subscriptions.WithLabelValues("mobHits")), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an adapter whose writes fail remotely", t, func() {
		m := NewManager()
		inner := local.New(kv.NewMemory(), nil)
		s := store.New(m.Instrument(brokenAdapter{inner}), nil)

		Convey("Then the failure is labelled remote_error and still returned", func() {
			_, err := s.Create(context.Background(), model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now()})
			So(errors.Is(err, store.ErrRemote), ShouldBeTrue)
			So(testutil.ToFloat64(m.storeOps.WithLabelValues("local", "create", "activities", "remote_error")), ShouldEqual, 1)
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given a manager that observed a request", t, func() {
		m := NewManager(WithNamespace("wrtest"))
		m.ObserveHTTP("GET /v1/health", http.StatusOK, 3*time.Millisecond)

		Convey("Then the exposition lists the request counter", func() {
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), "wrtest_http_requests_total"), ShouldBeTrue)
		})
	})
}
