package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/sschoell/pismprof/internal/cache"
	"github.com/sschoell/pismprof/internal/downloader"
	"github.com/sschoell/pismprof/internal/server"
	"github.com/sschoell/pismprof/internal/store"
	"github.com/sschoell/pismprof/internal/textreport"
	"github.com/sschoell/pismprof/internal/version"
)

func openBrowser(url string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		slog.Warn("Failed to open browser automatically", "error", err, "url", url)
	}
}

// browseURL is the address opened in the browser. Wildcard binds are still
// reachable via loopback, so they map to localhost.
func browseURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func envDuration(key string) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 0
}

func main() {
	envPort := 7878
	if p := os.Getenv("PORT"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			envPort = val
		}
	}
	port := flag.Int("port", envPort, "Port to listen on (can also be set via PORT env var)")

	envHost := "127.0.0.1"
	if h := os.Getenv("HOST"); h != "" {
		envHost = h
	}
	host := flag.String("host", envHost, "Host to bind to (default: 127.0.0.1, use 0.0.0.0 for containers) (can also be set via HOST env var)")

	fetchURL := flag.String("fetch-url", os.Getenv("FETCH_URL"), "URL to download the profile from (can also be set via FETCH_URL env var)")
	shutdownTimeout := flag.Duration("shutdown-timeout", envDuration("SHUTDOWN_TIMEOUT"), "Hard limit on server lifetime (e.g., 20m). 0 means no limit. (can also be set via SHUTDOWN_TIMEOUT env var)")
	inactivityTimeout := flag.Duration("inactivity-timeout", envDuration("INACTIVITY_TIMEOUT"), "Inactivity timeout (e.g., 5m). Shutdown if no UI heartbeats received. 0 means no limit. (can also be set via INACTIVITY_TIMEOUT env var)")
	persist := flag.Bool("persist", false, "Persist the run history database between runs (default: clean on start)")
	textMode := flag.Bool("text", false, "Print the report to stdout instead of serving the web UI")
	noBrowser := flag.Bool("no-browser", false, "Do not open the browser automatically")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <profile-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nReads PISM -profile output (Python module or JSON) and serves nested\npie charts of time spent per event in the time-stepping loop.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("pismprof version %s\n", version.Current)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	dataDir := filepath.Join(cacheDir, "pismprof")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Error("Failed to create data directory", "path", dataDir, "error", err)
		os.Exit(1)
	}

	profilePath := flag.Arg(0)
	if *fetchURL != "" {
		fetched, err := downloader.FetchProfile(*fetchURL, dataDir)
		if err != nil {
			logger.Error("Failed to fetch profile", "url", *fetchURL, "error", err)
			os.Exit(1)
		}
		profilePath = fetched
	}
	if profilePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *textMode {
		data, err := cache.New(profilePath, nil)
		if err != nil {
			logger.Error("Failed to load profile", "path", profilePath, "error", err)
			os.Exit(1)
		}
		textreport.Render(os.Stdout, data.Report)
		return
	}

	dbPath := filepath.Join(dataDir, "runs.db")
	runStore, err := store.NewSQLiteStore(dbPath, !*persist)
	if err != nil {
		logger.Warn("Run history unavailable", "db", dbPath, "error", err)
		runStore = nil
	}

	var storeInterface store.Store
	if runStore != nil {
		storeInterface = runStore
	}

	data, err := cache.New(profilePath, storeInterface)
	if err != nil {
		logger.Error("Failed to load profile", "path", profilePath, "error", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Data:              data,
		Store:             storeInterface,
		Logger:            logger,
		Version:           version.Current,
		ShutdownTimeout:   *shutdownTimeout,
		InactivityTimeout: *inactivityTimeout,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", *host, *port)
	logger.Info("Server listening on", "address", addr)

	if !*noBrowser {
		go func() {
			// Wait a brief moment for the listener to come up.
			time.Sleep(200 * time.Millisecond)
			openBrowser(browseURL(*host, *port))
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := http.ListenAndServe(addr, srv); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-c
	logger.Info("Shutting down...")
	srv.Shutdown()

	if !*persist {
		logger.Info("Cleaning up run database...", "path", dataDir)
		if err := os.RemoveAll(dataDir); err != nil {
			logger.Warn("Failed to clean up data directory on exit", "path", dataDir, "error", err)
		}
	}
}
