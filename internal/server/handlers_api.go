package server

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) apiReportHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.data.Report)
}

func (s *Server) apiViewHandler(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/api/view/")
	view, ok := s.data.Report.View(slug)
	if !ok {
		http.Error(w, "Unknown view: "+slug, http.StatusNotFound)
		return
	}
	s.writeJSON(w, view)
}

// apiRunHandler serves a previously stored report by run id, so an earlier
// run can be reopened without reparsing its profile file.
func (s *Server) apiRunHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Run history unavailable", http.StatusNotFound)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/run/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "Bad run id: "+raw, http.StatusBadRequest)
		return
	}
	report, err := s.store.GetReport(id)
	if err != nil {
		s.logger.Warn("Failed to load stored run", "id", id, "error", err)
		http.Error(w, "Unknown run id: "+raw, http.StatusNotFound)
		return
	}
	s.writeJSON(w, report)
}
