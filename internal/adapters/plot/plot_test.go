package plot

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForClients(h *Hub, n int) bool {
	for i := 0; i < 200; i++ {
		if h.ClientCount() == n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestHub(t *testing.T) {
	Convey("Given a plot hub behind a test server", t, func() {
		h := NewHub(WithClientBuffer(4))
		srv := httptest.NewServer(h)
		defer srv.Close()
		defer h.Close(context.Background())

		Convey("When a client connects and a frame is published", func() {
			conn := dial(t, srv)
			defer conn.Close()
			So(waitForClients(h, 1), ShouldBeTrue)

			h.Publish(model.PlotFrame{
				Variant:        model.Left,
				Raw:            []float64{0.1, 0.9},
				Smoothed:       []float64{0.2, 0.8},
				OpenThreshold:  0.8,
				CloseThreshold: 0.2,
				Peaks:          []int{1},
				Valleys:        []int{0},
			})

			Convey("Then the client receives the frame as JSON", func() {
				conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var got model.PlotFrame
				So(conn.ReadJSON(&got), ShouldBeNil)
				So(got.Variant, ShouldEqual, model.Left)
				So(got.Raw, ShouldResemble, []float64{0.1, 0.9})
				So(got.Peaks, ShouldResemble, []int{1})
				So(got.OpenThreshold, ShouldEqual, 0.8)
			})
		})

		Convey("When several clients are connected", func() {
			c1 := dial(t, srv)
			defer c1.Close()
			c2 := dial(t, srv)
			defer c2.Close()
			So(waitForClients(h, 2), ShouldBeTrue)

			h.Publish(model.PlotFrame{Variant: model.Combined})

			Convey("Then every client receives the frame", func() {
				for _, conn := range []*websocket.Conn{c1, c2} {
					conn.SetReadDeadline(time.Now().Add(2 * time.Second))
					var got model.PlotFrame
					So(conn.ReadJSON(&got), ShouldBeNil)
					So(got.Variant, ShouldEqual, model.Combined)
				}
			})
		})

		Convey("When a client disconnects", func() {
			conn := dial(t, srv)
			So(waitForClients(h, 1), ShouldBeTrue)

			conn.Close()

			Convey("Then the hub forgets it", func() {
				So(waitForClients(h, 0), ShouldBeTrue)
			})
		})

		Convey("When publishing with no clients", func() {
			Convey("Then nothing blocks or panics", func() {
				done := make(chan struct{})
				go func() {
					h.Publish(model.PlotFrame{Variant: model.Right})
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("publish blocked with no clients")
				}
			})
		})

		Convey("When the hub closes", func() {
			conn := dial(t, srv)
			defer conn.Close()
			So(waitForClients(h, 1), ShouldBeTrue)

			So(h.Close(context.Background()), ShouldBeNil)

			Convey("Then all clients are dropped", func() {
				So(h.ClientCount(), ShouldEqual, 0)
			})
		})
	})
}
