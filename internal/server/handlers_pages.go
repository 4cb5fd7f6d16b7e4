package server

import (
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/sschoell/pismprof/internal/chart"
	"github.com/sschoell/pismprof/internal/models"
	"github.com/sschoell/pismprof/internal/store"
)

type HomePageData struct {
	Active  string
	Report  *models.Report
	Runs    []store.RunSummary
	Version string
}

type ViewPageData struct {
	Active  string
	Report  *models.Report
	View    *models.View
	Version string
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := HomePageData{
		Active:  "home",
		Report:  s.data.Report,
		Version: s.version,
	}
	if s.store != nil {
		runs, err := s.store.ListRuns(10)
		if err != nil {
			s.logger.Warn("Failed to list recent runs", "error", err)
		}
		data.Runs = runs
	}

	s.renderPage(w, s.homeTemplate, data)
}

func (s *Server) viewPageHandler(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/view/")
	view, ok := s.data.Report.View(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.renderPage(w, s.viewTemplate, ViewPageData{
		Active:  view.Name,
		Report:  s.data.Report,
		View:    view,
		Version: s.version,
	})
}

// chartHandler serves /chart/{slug}.svg and /chart/{slug}.png.
func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/chart/")

	var contentType string
	var render func(io.Writer, *models.View, string) error
	switch {
	case strings.HasSuffix(name, ".svg"):
		name = strings.TrimSuffix(name, ".svg")
		contentType = "image/svg+xml"
		render = chart.RenderSVG
	case strings.HasSuffix(name, ".png"):
		name = strings.TrimSuffix(name, ".png")
		contentType = "image/png"
		render = chart.RenderPNG
	default:
		http.NotFound(w, r)
		return
	}

	view, ok := s.data.Report.View(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if err := render(w, view, s.data.Report.Source); err != nil {
		s.logger.Error("Failed to render chart", "view", view.Name, "error", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
	}
}

// renderPage executes the template into a pooled buffer first so a template
// error never produces a half-written page.
func (s *Server) renderPage(w http.ResponseWriter, tmpl *template.Template, data any) {
	buf := builderPool.Get().(*strings.Builder)
	buf.Reset()
	defer builderPool.Put(buf)

	if err := tmpl.Execute(buf, data); err != nil {
		s.logger.Error("Failed to execute template", "template", tmpl.Name(), "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, buf.String()); err != nil {
		s.logger.Error("Failed to write response", "template", tmpl.Name(), "error", err)
	}
}
