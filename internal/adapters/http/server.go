package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/channel"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIVersion is the version of the HTTP contract.
const APIVersion = "0.1.0"

// Config wires the handler to a running system. Feed and Gatherer are optional.
type Config struct {
	Registry *registry.Registry
	Feed     *observability.Feed
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Version  string
}

// Server serves the introspection API.
type Server struct {
	registry *registry.Registry
	feed     *observability.Feed
	logger   *slog.Logger
	version  string
}

// EventRequest is the body of the event and publish endpoints.
type EventRequest struct {
	Event   domain.EventID `json:"event"`
	Payload any            `json:"payload,omitempty"`
}

// ActorView describes a running actor.
type ActorView struct {
	ID      actor.ID        `json:"id"`
	Name    string          `json:"name"`
	Mailbox *int            `json:"mailbox,omitempty"`
	Timers  *int            `json:"timers,omitempty"`
	Machine *actor.Snapshot `json:"machine,omitempty"`
}

// ChannelView describes an open channel.
type ChannelView struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

type snapshotter interface {
	Snapshot() actor.Snapshot
}

type queued interface {
	Len() int
}

type scheduler interface {
	Pending() int
}

// NewHandler creates the HTTP handler of the introspection API.
func NewHandler(cfg Config) http.Handler {
	s := &Server{
		registry: cfg.Registry,
		feed:     cfg.Feed,
		logger:   cfg.Logger,
		version:  cfg.Version,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/actors", func(r chi.Router) {
		r.Get("/", s.ListActors)
		r.Get("/{name}", s.GetActor)
		r.Post("/{name}/events", s.PostEvent)
	})
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", s.ListChannels)
		r.Post("/{name}/publish", s.Publish)
	})
	if s.feed != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{
		"app":         "arbor-http",
		"version":     s.version,
		"api_version": APIVersion,
	})
}

// ListActors handles GET /actors.
func (s *Server) ListActors(w http.ResponseWriter, r *http.Request) {
	actors := s.registry.Actors()
	views := make([]ActorView, 0, len(actors))
	for _, a := range actors {
		views = append(views, view(a))
	}
	s.write(w, http.StatusOK, views)
}

// GetActor handles GET /actors/{name}.
func (s *Server) GetActor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a, ok := s.registry.ActorNamed(name)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("actor %q not found", name))
		return
	}
	s.write(w, http.StatusOK, view(a))
}

// PostEvent handles POST /actors/{name}/events.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ev, ok := s.decode(w, r)
	if !ok {
		return
	}
	a, found := s.registry.ActorNamed(name)
	if !found {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("actor %q not found", name))
		return
	}
	if err := a.Tell(ev); err != nil {
		s.fail(w, http.StatusConflict, err.Error())
		return
	}
	s.write(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ListChannels handles GET /channels.
func (s *Server) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels := s.registry.Channels()
	views := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, ChannelView{Name: ch.Name(), Subscribers: ch.Subscribers()})
	}
	s.write(w, http.StatusOK, views)
}

// Publish handles POST /channels/{name}/publish.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ev, ok := s.decode(w, r)
	if !ok {
		return
	}
	ch, found := s.registry.Channel(name)
	if !found {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("channel %q not found", name))
		return
	}
	n, err := ch.Publish(ev)
	var overflow *channel.OverflowError
	switch {
	case errors.Is(err, channel.ErrClosed):
		s.fail(w, http.StatusConflict, err.Error())
	case errors.As(err, &overflow):
		s.write(w, http.StatusOK, map[string]int{"delivered": n, "dropped": len(overflow.Dropped)})
	default:
		s.write(w, http.StatusOK, map[string]int{"delivered": n})
	}
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.feed.Watch(r.Context())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (domain.Event, bool) {
	var body EventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body")
		return domain.Event{}, false
	}
	if body.Event == "" {
		s.fail(w, http.StatusBadRequest, "missing event")
		return domain.Event{}, false
	}
	return domain.NewEvent(body.Event, body.Payload), true
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.write(w, status, map[string]string{"error": msg})
}

func view(a actor.Ref) ActorView {
	v := ActorView{ID: a.ID(), Name: a.Name()}
	if q, ok := a.(queued); ok {
		n := q.Len()
		v.Mailbox = &n
	}
	if t, ok := a.(scheduler); ok {
		n := t.Pending()
		v.Timers = &n
	}
	if m, ok := a.(snapshotter); ok {
		snap := m.Snapshot()
		v.Machine = &snap
	}
	return v
}
