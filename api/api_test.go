package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/CodedInternet/godynastat/vehicle"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer() (*Server, *vehicle.Monitor) {
	reg, err := vehicle.NewRegistry(vehicle.NewCommands(0, 0))
	if err != nil {
		panic(err)
	}
	m := vehicle.NewMonitor(reg, zerolog.Nop())

	buf := make([]byte, 8)
	vehicle.EncodeSpeed(buf, 8.5)
	f, _ := canbus.NewFrame(vehicle.IDSpeedReport, buf)
	f.Timestamp = time.Unix(1700000000, 0)
	m.Apply(f)

	s := NewServer(m, zerolog.Nop())
	s.now = func() time.Time { return time.Unix(1700000000, 0).Add(250 * time.Millisecond) }
	return s, m
}

func TestAPI(t *testing.T) {
	Convey("the api router", t, func() {
		s, m := newTestServer()
		router := s.Router()

		Convey("serves the current state", func() {
			req := httptest.NewRequest("GET", "/api/state", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			var resp StateResponse
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.SpeedMPS, ShouldAlmostEqual, 8.5)
			So(resp.AgeMillis["speed_report"], ShouldEqual, 250)
			So(resp.Stats.Accepted, ShouldEqual, 1)
		})

		Convey("lists the registered protocols", func() {
			req := httptest.NewRequest("GET", "/api/protocols", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var list []vehicle.Descriptor
			So(json.Unmarshal(w.Body.Bytes(), &list), ShouldBeNil)
			So(len(list), ShouldEqual, 6)
			So(list[0].Name, ShouldEqual, "speed_report")
		})

		Convey("resets the monitor", func() {
			req := httptest.NewRequest("POST", "/api/reset", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(m.Snapshot().SpeedMPS, ShouldEqual, 0.0)
		})

		Convey("streams state over a websocket", func() {
			srv := httptest.NewServer(router)
			defer srv.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/state"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			var resp StateResponse
			So(conn.ReadJSON(&resp), ShouldBeNil)
			So(resp.SpeedMPS, ShouldAlmostEqual, 8.5)

			So(conn.ReadJSON(&resp), ShouldBeNil)
			So(resp.Stats.Accepted, ShouldEqual, 1)
		})
	})
}
