// Package server exposes the Slack Events API and interactivity endpoints
// for deployments that use HTTP delivery instead of Socket Mode.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// Dispatcher routes decoded Slack payloads. *bot.Router satisfies it.
type Dispatcher interface {
	HandleSlashCommand(ctx context.Context, cmd *slack.SlashCommand) error
	HandleInteraction(ctx context.Context, p *slack.InteractionPayload) error
	HandleEvent(ctx context.Context, event *slack.Event) error
}

// Config holds server configuration.
type Config struct {
	ListenAddr    string
	SigningSecret string
}

// Server verifies and decodes Slack's HTTP deliveries, acks them inside
// Slack's response deadline, and dispatches the work asynchronously.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	now        func() time.Time
}

// New creates a server around the given dispatcher.
func New(cfg Config, dispatcher Dispatcher, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "server").Logger(),
		now:        time.Now,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/slack/events", s.handleEvents)
	r.Post("/api/slack/interactive", s.handleInteractive)
	r.Post("/api/slack/commands", s.handleCommand)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// readVerified reads the request body and checks its Slack signature.
// A nil return with no error written means the caller already got a response.
func (s *Server) readVerified(w http.ResponseWriter, r *http.Request) []byte {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return nil
	}

	err = verifySignature(
		s.cfg.SigningSecret,
		r.Header.Get("X-Slack-Request-Timestamp"),
		r.Header.Get("X-Slack-Signature"),
		body,
		s.now(),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejecting unsigned request")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return nil
	}
	return body
}

// handleEvents serves the Events API: url_verification handshakes are
// answered inline, event callbacks are acked and dispatched in the
// background.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body := s.readVerified(w, r)
	if body == nil {
		return
	}

	var payload slack.EventsAPIPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "decoding payload", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case slack.EventsAPIURLVerify:
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(payload.Challenge))

	case slack.EventsAPICallback:
		var event slack.Event
		if err := json.Unmarshal(payload.Event, &event); err != nil {
			http.Error(w, "decoding event", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		go s.dispatch(event.Type, func(ctx context.Context) error {
			return s.dispatcher.HandleEvent(ctx, &event)
		})

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleInteractive serves block actions and view submissions, which Slack
// posts as a form with the JSON under the "payload" field.
func (s *Server) handleInteractive(w http.ResponseWriter, r *http.Request) {
	body := s.readVerified(w, r)
	if body == nil {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "decoding form", http.StatusBadRequest)
		return
	}
	p, err := slack.ParseInteractionPayload([]byte(form.Get("payload")))
	if err != nil {
		http.Error(w, "decoding payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	go s.dispatch(p.Type, func(ctx context.Context) error {
		return s.dispatcher.HandleInteraction(ctx, p)
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body := s.readVerified(w, r)
	if body == nil {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "decoding form", http.StatusBadRequest)
		return
	}
	cmd := slack.SlashCommandFromForm(form)

	w.WriteHeader(http.StatusOK)
	go s.dispatch(cmd.Command, func(ctx context.Context) error {
		return s.dispatcher.HandleSlashCommand(ctx, cmd)
	})
}

// dispatch runs a handler detached from the acked HTTP request, with its own
// deadline.
func (s *Server) dispatch(kind string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("dispatch failed")
	}
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
