package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/idom/pkg/protocol"
)

// FrameRecorder observes published frames.
type FrameRecorder interface {
	RecordFrame(size int)
}

// Config configures a Server.
type Config struct {
	// Addr is the address to listen on.
	Addr string

	// Title is shown in the page title.
	Title string

	// RootTag is the tag of the element the client mounts frames into.
	RootTag string

	Logger *slog.Logger

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// Frames, when set, observes the size of every published frame.
	Frames FrameRecorder
}

// Server is the preview HTTP server.
type Server struct {
	cfg    Config
	logger *slog.Logger
	hub    *Hub
	router chi.Router

	mu     sync.RWMutex
	html   string
	stream bytes.Buffer
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = "idom preview"
	}
	if cfg.RootTag == "" {
		cfg.RootTag = "div"
	}
	logger := cfg.Logger.With("component", "preview")

	s := &Server{
		cfg:    cfg,
		logger: logger,
		hub:    NewHub(logger),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/html", s.handleHTML)
	r.Get("/frames", s.handleFrames)
	r.Get("/ws", s.hub.HandleWebSocket)
	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Reset starts a new run: the frame history is dropped and clients clear
// their tree. bootstrap, when not nil, is the frame that builds the
// initial tree of the new run.
func (s *Server) Reset(bootstrap *protocol.Frame) {
	s.mu.Lock()
	s.html = ""
	s.stream.Reset()
	s.mu.Unlock()

	s.hub.Reset()
	s.hub.ClearError()
	if bootstrap != nil {
		s.Publish(bootstrap, "")
	}
}

// Publish sends a frame to clients and records it in the stream. html,
// when not empty, becomes the current HTML.
func (s *Server) Publish(f *protocol.Frame, html string) {
	s.mu.Lock()
	if html != "" {
		s.html = html
	}
	if f != nil {
		_ = protocol.WriteFrame(&s.stream, f)
	}
	s.mu.Unlock()

	if f == nil {
		return
	}
	data := protocol.EncodeFrame(f)
	if s.cfg.Frames != nil {
		s.cfg.Frames.RecordFrame(len(data))
	}
	s.hub.Frame(data)
}

// SetHTML replaces the current HTML without publishing a frame.
func (s *Server) SetHTML(html string) {
	s.mu.Lock()
	s.html = html
	s.mu.Unlock()
}

// PublishError shows err on clients.
func (s *Server) PublishError(err error) {
	s.hub.Error(err.Error())
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("preview server listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate, html.EscapeString(s.cfg.Title), s.cfg.RootTag, s.cfg.RootTag, clientScript)
}

func (s *Server) handleHTML(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	body := s.html
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleFrames(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	body := bytes.Clone(s.stream.Bytes())
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
