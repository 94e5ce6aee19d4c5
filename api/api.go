// Package api exposes the monitored vehicle state over HTTP and WebSocket.
package api

import (
	"net/http"
	"time"

	"github.com/CodedInternet/godynastat/vehicle"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const STREAM_INTERVAL = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StateResponse is the JSON view of a vehicle.State.
type StateResponse struct {
	SpeedMPS        float64          `json:"speed_mps"`
	SteeringDeg     float64          `json:"steering_deg"`
	Accel           [3]float64       `json:"accel"`
	Firmware        string           `json:"firmware"`
	ThrottleCmdPct  float64          `json:"throttle_cmd_pct"`
	SteeringCmdDeg  float64          `json:"steering_cmd_deg"`
	Enabled         bool             `json:"enabled"`
	SteeringEnabled bool             `json:"steering_enabled"`
	AgeMillis       map[string]int64 `json:"age_ms"`
	Stats           vehicle.Stats    `json:"stats"`
}

func (s *StateResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func NewStateResponse(state vehicle.State, stats vehicle.Stats, now time.Time) *StateResponse {
	resp := &StateResponse{
		SpeedMPS:        state.SpeedMPS,
		SteeringDeg:     state.SteeringDeg,
		Accel:           [3]float64(state.Accel),
		Firmware:        state.Firmware,
		ThrottleCmdPct:  state.ThrottleCmdPct,
		SteeringCmdDeg:  state.SteeringCmdDeg,
		Enabled:         state.Enabled,
		SteeringEnabled: state.SteeringEnabled,
		AgeMillis:       make(map[string]int64, len(state.Updated)),
		Stats:           stats,
	}
	for id := range state.Updated {
		age, _ := state.Age(id, now)
		resp.AgeMillis[vehicle.Name(id)] = age.Milliseconds()
	}
	return resp
}

// Server serves a Monitor.
type Server struct {
	monitor *vehicle.Monitor
	log     zerolog.Logger
	now     func() time.Time
}

func NewServer(monitor *vehicle.Monitor, log zerolog.Logger) *Server {
	return &Server{
		monitor: monitor,
		log:     log.With().Str("component", "api").Logger(),
		now:     time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/state", s.getState)
		r.Post("/reset", s.postReset)
		r.Get("/protocols", s.getProtocols)
	})

	r.Get("/ws/state", s.streamState)

	return r
}

func (s *Server) snapshot() *StateResponse {
	return NewStateResponse(s.monitor.Snapshot(), s.monitor.Stats(), s.now())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, s.snapshot())
}

func (s *Server) postReset(w http.ResponseWriter, r *http.Request) {
	s.monitor.Reset()
	s.log.Info().Msg("state reset over api")
	render.NoContent(w, r)
}

func (s *Server) getProtocols(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, vehicle.Describe(s.monitor.Registry()))
}

// streamState pushes a state snapshot every STREAM_INTERVAL until the client
// goes away.
func (s *Server) streamState(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// drain reads so close frames from the client are seen
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(STREAM_INTERVAL)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			return
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
