// Package downloader fetches profile files from remote locations. Profiles
// usually live on a cluster head node; serving them over a plain HTTP
// endpoint and pointing pismprof at the URL avoids a manual scp round-trip.
package downloader

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// maxProfileSize caps the download; profiling modules are small (kilobytes
// to a few megabytes even for very large process counts).
const maxProfileSize = 256 << 20

// FetchProfile downloads the profile at rawURL into dataDir and returns the
// local path. The file is written via a temp name and renamed so a partial
// download never looks like a valid profile.
func FetchProfile(rawURL, dataDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid profile URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "profile.py"
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}
	targetPath := filepath.Join(dataDir, name)

	slog.Info("Downloading profile", "url", rawURL)

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dataDir, name+".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxProfileSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	if n > maxProfileSize {
		return "", fmt.Errorf("profile exceeds %d byte limit", int64(maxProfileSize))
	}

	if err := os.Rename(tmp.Name(), targetPath); err != nil {
		return "", fmt.Errorf("failed to move profile into place: %w", err)
	}

	slog.Info("Download complete", "path", targetPath, "bytes", n)
	return targetPath, nil
}
