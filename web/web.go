// Package web provides an HTTP server that publishes a reconciliation report.
//
// The server loads the given exports, reconciles them and exposes the
// results as JSON. With watching enabled it reconciles again whenever an
// input file changes and notifies connected clients over server-sent events.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/loader"
	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	Currency     string
	WatchEnabled bool

	// Loader reads the input files. It defaults to a loader without options.
	Loader *loader.Loader

	config *ledger.Config
	inputs []string // paths passed to New, used for every load

	mu     sync.RWMutex
	result *ledger.Result
	files  []string // absolute paths of the loaded files
	err    error    // error of the last load or reconcile, if any

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// New creates a server for the given input files. A nil cfg uses the
// default ledger configuration.
func New(port int, inputs []string, cfg *ledger.Config) *Server {
	if cfg == nil {
		cfg = ledger.NewConfig()
	}
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Currency:   "USD",
		Loader:     loader.New(),
		config:     cfg,
		inputs:     inputs,
		sseClients: make(map[chan string]struct{}),
	}
}

// Start loads the report and serves it until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if len(s.inputs) == 0 {
		return fmt.Errorf("at least one input file is required")
	}

	loadTimer := timer.Child("web.load")
	if err := s.reload(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load report: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/sales", s.handleGetSales)
	mux.HandleFunc("GET /api/income", s.handleGetIncome)
	mux.HandleFunc("GET /api/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/positions", s.handleGetPositions)
	mux.HandleFunc("GET /api/shortfalls", s.handleGetShortfalls)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// reload loads every input and reconciles it. Load failures are returned
// and keep the previous report. A failed reconcile keeps the partial report
// and its error, which /api/status exposes.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reload(ctx context.Context) error {
	loaded, err := s.Loader.Load(ctx, s.inputs...)
	if err != nil {
		return err
	}

	result, err := ledger.Reconcile(ctx, loaded.Transactions, s.config)

	s.mu.Lock()
	s.result = result
	s.files = loaded.Files
	s.err = err
	s.mu.Unlock()

	return nil
}

// startWatcher watches every loaded file and reconciles again on change.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	s.mu.RLock()
	files := append([]string(nil), s.files...)
	s.mu.RUnlock()

	log := logging.FromContext(ctx)
	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			log.WithError(err).WithField("file", file).Warn("failed to watch file")
		}
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Exports are often written in several steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove/Rename are common in atomic saves
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.FromContext(ctx).WithError(err).Warn("file watcher error")
		}
	}
}

// handleFileChange reconciles again and updates the watch list.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	log := logging.FromContext(ctx)

	s.mu.RLock()
	oldFiles := make(map[string]bool, len(s.files))
	for _, f := range s.files {
		oldFiles[f] = true
	}
	s.mu.RUnlock()

	if err := s.reload(ctx); err != nil {
		log.WithError(err).Warn("failed to reload report")
		s.broadcast("error")
		return
	}

	s.mu.RLock()
	newFiles := make(map[string]bool, len(s.files))
	for _, f := range s.files {
		newFiles[f] = true
	}
	s.mu.RUnlock()

	for file := range oldFiles {
		if !newFiles[file] {
			_ = watcher.Remove(file)
		}
	}

	// Re-add to catch files that were re-created
	for file := range newFiles {
		if err := watcher.Add(file); err != nil {
			log.WithError(err).WithField("file", file).Warn("failed to watch file")
		}
	}

	log.WithField("files", strings.Join(keys(newFiles), ",")).Info("report reloaded")
	s.broadcast("reload")
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
