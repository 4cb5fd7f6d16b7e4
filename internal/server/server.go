package server

import (
	"compress/gzip"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sschoell/pismprof/internal/cache"
	"github.com/sschoell/pismprof/internal/store"
	"github.com/sschoell/pismprof/ui"
)

// SecurityHeadersMiddleware adds security-related headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:;")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		gzw := gzipResponseWriter{Writer: gz, ResponseWriter: w}
		w.Header().Set("Content-Encoding", "gzip")

		next.ServeHTTP(gzw, r)
	})
}

// Config carries everything the server needs; Store may be nil (no history).
type Config struct {
	Data              *cache.CachedData
	Store             store.Store
	Logger            *slog.Logger
	Version           string
	ShutdownTimeout   time.Duration
	InactivityTimeout time.Duration
}

type Server struct {
	data              *cache.CachedData
	store             store.Store
	logger            *slog.Logger
	version           string
	handler           http.Handler
	homeTemplate      *template.Template
	viewTemplate      *template.Template
	shutdownTimeout   time.Duration
	inactivityTimeout time.Duration
	lastHeartbeat     int64 // Unix timestamp
}

func New(cfg Config) (*Server, error) {
	if cfg.Data == nil {
		return nil, fmt.Errorf("server requires loaded profile data")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	funcMap := template.FuncMap{
		"formatSeconds": formatSeconds,
		"percent":       formatPercent,
	}

	homeTemplate, err := template.New("home.tmpl").Funcs(funcMap).ParseFS(ui.HTMLFiles, "html/home.tmpl", "html/nav.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse home template: %w", err)
	}
	viewTemplate, err := template.New("view.tmpl").Funcs(funcMap).ParseFS(ui.HTMLFiles, "html/view.tmpl", "html/nav.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse view template: %w", err)
	}

	server := &Server{
		data:              cfg.Data,
		store:             cfg.Store,
		logger:            logger,
		version:           cfg.Version,
		homeTemplate:      homeTemplate,
		viewTemplate:      viewTemplate,
		shutdownTimeout:   cfg.ShutdownTimeout,
		inactivityTimeout: cfg.InactivityTimeout,
		lastHeartbeat:     time.Now().Unix(),
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.FileServer(http.FS(ui.StaticFiles)))
	mux.HandleFunc("/", server.homeHandler)
	mux.HandleFunc("/view/", server.viewPageHandler)
	mux.HandleFunc("/chart/", server.chartHandler)
	mux.HandleFunc("/api/report", server.apiReportHandler)
	mux.HandleFunc("/api/view/", server.apiViewHandler)
	mux.HandleFunc("/api/run/", server.apiRunHandler)
	mux.HandleFunc("/api/heartbeat", server.heartbeatHandler)

	// Order: Gzip -> Security -> Mux
	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware(handler)
	handler = GzipMiddleware(handler)
	server.handler = handler

	server.startTimeoutWatcher()

	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) heartbeatHandler(w http.ResponseWriter, r *http.Request) {
	atomic.StoreInt64(&s.lastHeartbeat, time.Now().Unix())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startTimeoutWatcher() {
	if s.shutdownTimeout == 0 && s.inactivityTimeout == 0 {
		return
	}

	startTime := time.Now()
	ticker := time.NewTicker(30 * time.Second)

	go func() {
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()

			if s.shutdownTimeout > 0 && now.Sub(startTime) > s.shutdownTimeout {
				s.logger.Info("Hard shutdown timeout reached. Shutting down...", "timeout", s.shutdownTimeout)
				syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
				return
			}

			if s.inactivityTimeout > 0 {
				last := atomic.LoadInt64(&s.lastHeartbeat)
				if now.Unix()-last > int64(s.inactivityTimeout.Seconds()) {
					s.logger.Info("Inactivity timeout reached. Shutting down...", "timeout", s.inactivityTimeout)
					syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
					return
				}
			}
		}
	}()
}

func (s *Server) Shutdown() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("Failed to close run store", "error", err)
		}
	}
}
