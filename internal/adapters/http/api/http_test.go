package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ocumetry/eyelid/internal/adapters/bus"
	"github.com/ocumetry/eyelid/internal/domain/model"
)

type fakeDeps struct {
	events   []bus.Event
	full     bool
	openness float64
	source   string
}

func (f *fakeDeps) Enqueue(_ context.Context, e bus.Event) bool {
	if f.full {
		return false
	}
	f.events = append(f.events, e)
	return true
}

func (f *fakeDeps) Predict(_ model.Sample, _ model.EyeVariant) (float64, string) {
	return f.openness, f.source
}

type fakeStats struct{ stats Stats }

func (f *fakeStats) Stats(context.Context) Stats { return f.stats }

func newTestServer(deps *fakeDeps, stats StatsProvider) *httptest.Server {
	mux := http.NewServeMux()
	NewServer(deps, stats, nil).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestPostEvent(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		deps := &fakeDeps{}
		srv := newTestServer(deps, &fakeStats{})
		defer srv.Close()

		post := func(body string) *http.Response {
			resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When a phase edge is posted", func() {
			resp := post(`{"type":"phase","phase":"closed","active":true}`)
			defer resp.Body.Close()

			Convey("Then it is accepted and enqueued", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(deps.events, ShouldHaveLength, 1)
				So(deps.events[0].Kind, ShouldEqual, bus.KindPhaseEdge)
				So(deps.events[0].Phase, ShouldEqual, model.PhaseClosed)
				So(deps.events[0].Active, ShouldBeTrue)
			})
		})

		Convey("When an encoder sample is posted", func() {
			resp := post(`{"type":"sample","variant":"left","sample":[0.1,0.2,0.3],"timestamp":99}`)
			defer resp.Body.Close()

			Convey("Then it is accepted and enqueued", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(deps.events, ShouldHaveLength, 1)
				e := deps.events[0]
				So(e.Kind, ShouldEqual, bus.KindSample)
				So(e.Variant, ShouldEqual, model.Left)
				So(e.Sample, ShouldResemble, model.Sample{0.1, 0.2, 0.3})
				So(e.Timestamp, ShouldEqual, 99)
			})
		})

		Convey("When the payload is malformed", func() {
			for _, body := range []string{
				`not json`,
				`{"type":"phase","phase":"sideways","active":true}`,
				`{"type":"phase","phase":"closed"}`,
				`{"type":"sample","variant":"left"}`,
				`{"type":"sample","variant":"middle","sample":[0.1,0.2,0.3]}`,
				`{"type":"mystery"}`,
			} {
				resp := post(body)
				resp.Body.Close()

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}

			Convey("Then nothing reaches the bus", func() {
				So(deps.events, ShouldBeEmpty)
			})
		})

		Convey("When the bus is full", func() {
			deps.full = true
			resp := post(`{"type":"phase","phase":"open","active":false}`)
			defer resp.Body.Close()

			Convey("Then the request is rejected with backpressure", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the method is not POST", func() {
			resp, err := http.Get(srv.URL + "/events")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGetOpenness(t *testing.T) {
	Convey("Given the openness endpoint", t, func() {
		deps := &fakeDeps{openness: 0.73, source: "smooth"}
		srv := newTestServer(deps, &fakeStats{})
		defer srv.Close()

		Convey("When a valid query arrives", func() {
			resp, err := http.Get(srv.URL + "/openness?variant=left&x=0.1&y=0.2&z=0.3")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it answers with the prediction", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got opennessResponse
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.Variant, ShouldEqual, model.Left)
				So(got.Openness, ShouldEqual, 0.73)
				So(got.Source, ShouldEqual, "smooth")
			})
		})

		Convey("When the variant is omitted", func() {
			resp, err := http.Get(srv.URL + "/openness?x=0.1&y=0.2&z=0.3")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the combined variant is assumed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got opennessResponse
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.Variant, ShouldEqual, model.Combined)
			})
		})

		Convey("When the query is invalid", func() {
			for _, q := range []string{
				"?variant=middle&x=0.1&y=0.2&z=0.3",
				"?variant=left&y=0.2&z=0.3",
				"?variant=left&x=abc&y=0.2&z=0.3",
			} {
				resp, err := http.Get(srv.URL + "/openness" + q)
				So(err, ShouldBeNil)
				resp.Body.Close()

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the service endpoints", t, func() {
		stats := &fakeStats{stats: Stats{
			BusSize:          3,
			RegisteredModels: 2,
			Capturing:        map[string]bool{"blink": true},
			BufferedSamples:  map[string]int{"blink/left": 40},
		}}
		srv := newTestServer(&fakeDeps{}, stats)
		defer srv.Close()

		Convey("When health is checked", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it reports ok", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got healthResponse
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.Status, ShouldEqual, "ok")
			})
		})

		Convey("When stats are requested", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the snapshot is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got Stats
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.BusSize, ShouldEqual, 3)
				So(got.RegisteredModels, ShouldEqual, 2)
				So(got.Capturing["blink"], ShouldBeTrue)
				So(got.BufferedSamples["blink/left"], ShouldEqual, 40)
			})
		})

		Convey("When metrics are scraped", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the exposition endpoint answers", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
