package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func formatSeconds(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.2f s", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		remainingSeconds := seconds - float64(int(minutes)*60)
		return fmt.Sprintf("%dm %.1fs", int(minutes), remainingSeconds)
	}
	hours := minutes / 60
	remainingMinutes := minutes - float64(int(hours)*60)
	return fmt.Sprintf("%dh %.1fm", int(hours), remainingMinutes)
}

func formatPercent(part, whole float64) string {
	if whole <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%3.1f%%", 100*part/whole)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}
