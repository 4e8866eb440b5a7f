package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/api"
	"github.com/davidkirwan/asset-monitoring/internal/config"
	"github.com/davidkirwan/asset-monitoring/internal/fetch"
	"github.com/davidkirwan/asset-monitoring/internal/source"
	"github.com/davidkirwan/asset-monitoring/internal/telemetry"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	// Handle -nginx / --nginx anywhere
	if cmd == "-nginx" || cmd == "--nginx" {
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdNginx()
		return
	}

	switch cmd {
	case "start":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStart()
	case "stop":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStop()
	case "status":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStatus()
	case "run":
		// Foreground mode (also used internally by daemon child)
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdRun(false)
	case "version":
		fmt.Printf("assetmon %s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `AssetMon — Precious-Metals & Crypto Price Exporter (%s)

Usage:
  %s <command> [flags]

Commands:
  start          Start daemon (background)
  stop           Stop daemon
  status         Show daemon status
  run            Run in foreground
  version        Print version

Flags:
  -nginx             Print sample nginx reverse proxy configuration
  -config PATH       Config file path (default: config.yaml)
  -listen ADDR       Listen address (default: :8080)
  -base-path P       Base URL path for reverse proxy
  -pid-file P        PID file path
  -log-file P        Log file path
  -log-level LEVEL   Log level (debug|info|warn|error)
  -partial-success   Render surviving sources when one upstream fails

Examples:
  %s start
  %s start -config /etc/assetmon/config.yaml
  %s stop
  %s status
  %s run
  %s -nginx
`, version, exe, exe, exe, exe, exe, exe, exe)
}

// ---------------------------------------------------------------------------
// -nginx: print sample nginx config
// ---------------------------------------------------------------------------

func cmdNginx() {
	cfg := config.Load()

	bp := cfg.BasePath
	if bp == "/" {
		bp = "/assetmon"
		fmt.Println("# base_path is \"/\" — using \"/assetmon\" as example.")
		fmt.Println("# Set base_path in config.yaml to match your desired location.")
		fmt.Println()
	}

	// Ensure trailing slash for nginx location
	loc := bp + "/"

	fmt.Printf(`# --------------------------------------------------
# nginx reverse proxy configuration for AssetMon
# --------------------------------------------------
# Add this inside an http { server { ... } } block.

location %s {
    proxy_pass         http://%s/;
    proxy_http_version 1.1;

    # Forward client info
    proxy_set_header   Host              $host;
    proxy_set_header   X-Real-IP         $remote_addr;
    proxy_set_header   X-Forwarded-For   $proxy_add_x_forwarded_for;
    proxy_set_header   X-Forwarded-Proto $scheme;
}
`, loc, cfg.Listen)

	fmt.Println("# config.yaml should have:")
	fmt.Printf("#   base_path: \"%s\"\n", bp)
}

// ---------------------------------------------------------------------------
// run: foreground server (also used by daemon child)
// ---------------------------------------------------------------------------

func cmdRun(isDaemon bool) {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	// In daemon mode, write our own PID (child process)
	if isDaemon {
		writePidFile(cfg.PidFile, os.Getpid())
	}

	tel := telemetry.New()
	registry := source.NewRegistry()
	registerAllSources(registry, cfg, tel, logger)

	agg := source.NewAggregator(registry, cfg.PartialSuccess, tel, logger)
	router := api.NewRouter(agg, tel, cfg.BasePath, logger)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	go func() {
		logger.Infof("AssetMon %s listening on http://%s (base_path: %s, env: %s)",
			version, cfg.Listen, cfg.BasePath, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Wait for signal
	<-ctx.Done()
	logger.Info("shutting down...")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)

	// Clean up PID file
	os.Remove(cfg.PidFile)
	logger.Info("goodbye")
}

func registerAllSources(registry *source.Registry, cfg *config.Config, tel *telemetry.Telemetry, logger *logrus.Logger) {
	bvClient := fetch.New("bullionvault",
		time.Duration(cfg.BullionVault.Timeout)*time.Second,
		cfg.BullionVault.Retries,
		time.Duration(cfg.BullionVault.Interval)*time.Second,
		tel, logger)
	registry.Register(source.NewBullionVault(cfg.BullionVault.URL, bvClient, logger))

	cbClient := fetch.New("coinbase",
		time.Duration(cfg.Coinbase.Timeout)*time.Second,
		cfg.Coinbase.Retries,
		time.Duration(cfg.Coinbase.Interval)*time.Second,
		tel, logger)
	registry.Register(source.NewCoinbase(cfg.Coinbase.URL, cbClient, cfg.Coinbase.FailFast, logger))

	appVersion := cfg.AppVersion
	if appVersion == "" {
		appVersion = version
	}
	registry.Register(source.NewAppInfo(appVersion, cfg.Environment))

	if cfg.SelfMetrics {
		if p, err := source.NewProcess(); err == nil {
			registry.Register(p)
		} else {
			logger.Warnf("[startup] self metrics unavailable: %v", err)
		}
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// ---------------------------------------------------------------------------
// PID file helpers
// ---------------------------------------------------------------------------

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s", path)
	}
	return pid, nil
}

// buildForwardFlags generates flags to forward the loaded config to the child.
func buildForwardFlags(cfg *config.Config) []string {
	var args []string
	args = append(args, "-config", cfg.ConfigPath)
	return args
}
