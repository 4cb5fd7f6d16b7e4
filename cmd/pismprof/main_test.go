package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 7878, "http://127.0.0.1:7878"},
		{"0.0.0.0", 7878, "http://localhost:7878"},
		{"::", 7878, "http://localhost:7878"},
		{"", 8080, "http://localhost:8080"},
		{"::1", 7878, "http://[::1]:7878"},
		{"node01.cluster", 9000, "http://node01.cluster:9000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, browseURL(tt.host, tt.port), "host %q", tt.host)
	}
}
