package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig holds per-upstream fetch settings. Timeout, Retries and
// Interval are in seconds.
type SourceConfig struct {
	URL      string `yaml:"url"`
	Timeout  int    `yaml:"timeout"`
	Retries  int    `yaml:"retries"`
	Interval int    `yaml:"interval"`
}

// CoinbaseConfig adds the per-pair failure policy: by default a failing pair
// is skipped, with fail_fast the first failure aborts the whole source.
type CoinbaseConfig struct {
	SourceConfig `yaml:",inline"`
	FailFast     bool `yaml:"fail_fast"`
}

// Config holds the application configuration.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Listen      string `yaml:"listen"`
	BasePath    string `yaml:"base_path"`
	PidFile     string `yaml:"pid_file"`
	LogFile     string `yaml:"log_file"`
	AppVersion  string `yaml:"app_version"`

	// PartialSuccess renders surviving sources when one fails instead of
	// failing the whole scrape.
	PartialSuccess bool `yaml:"partial_success"`
	// SelfMetrics adds the exporter's own process gauges to the output.
	SelfMetrics bool `yaml:"self_metrics"`

	BullionVault SourceConfig   `yaml:"bullionvault"`
	Coinbase     CoinbaseConfig `yaml:"coinbase"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment: "production",
		LogLevel:    "info",
		Listen:      ":8080",
		BasePath:    "/",
		PidFile:     "assetmon.pid",
		LogFile:     "assetmon.log",
		AppVersion:  "unknown",
		BullionVault: SourceConfig{
			URL:      "https://www.bullionvault.com/view_market_xml.do",
			Timeout:  30,
			Retries:  3,
			Interval: 1,
		},
		Coinbase: CoinbaseConfig{
			SourceConfig: SourceConfig{
				URL:      "https://api.coinbase.com/v2/prices",
				Timeout:  30,
				Retries:  3,
				Interval: 1,
			},
		},
		ConfigPath: "config.yaml",
	}
}

// Load reads configuration with priority: defaults < config.yaml < env vars < flags.
func Load() *Config {
	cfg := DefaultConfig()

	// 1) Pre-scan for -config flag before parsing (so we know which file to read)
	configPath := cfg.ConfigPath
	for i, arg := range os.Args[1:] {
		if arg == "-config" || arg == "--config" {
			if i+2 < len(os.Args) {
				configPath = os.Args[i+2]
			}
		} else if strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config=") {
			configPath = strings.SplitN(arg, "=", 2)[1]
		}
	}

	applyFile(cfg, configPath)
	cfg.ConfigPath = configPath

	applyEnv(cfg)

	// Flags override everything
	flag.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to config.yaml")
	flag.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address (host:port)")
	flag.StringVar(&cfg.BasePath, "base-path", cfg.BasePath, "Base URL path for reverse proxy")
	flag.StringVar(&cfg.PidFile, "pid-file", cfg.PidFile, "PID file path")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	flag.BoolVar(&cfg.PartialSuccess, "partial-success", cfg.PartialSuccess, "Render surviving sources when one fails")
	flag.Parse()

	cfg.BasePath = normalizeBasePath(cfg.BasePath)

	return cfg
}

// applyFile loads the YAML config file over the defaults.
func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] warning: failed to parse %s: %v", path, err)
		return
	}
	log.Printf("[config] loaded %s", path)
}

// applyEnv overlays environment variables. The per-source names match the
// deployment's existing manifests (BULLIONVAULT_URL etc).
func applyEnv(cfg *Config) {
	envStr("APP_ENV", &cfg.Environment)
	envStr("LOG_LEVEL", &cfg.LogLevel)
	envStr("APP_VERSION", &cfg.AppVersion)
	envStr("ASSETMON_LISTEN", &cfg.Listen)
	envStr("ASSETMON_BASE_PATH", &cfg.BasePath)
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}

	envStr("BULLIONVAULT_URL", &cfg.BullionVault.URL)
	envInt("BULLIONVAULT_TIMEOUT", &cfg.BullionVault.Timeout)
	envInt("BULLIONVAULT_RETRIES", &cfg.BullionVault.Retries)

	envStr("COINBASE_URL", &cfg.Coinbase.URL)
	envInt("COINBASE_TIMEOUT", &cfg.Coinbase.Timeout)
	envInt("COINBASE_RETRIES", &cfg.Coinbase.Retries)

	envBool("ASSETMON_PARTIAL_SUCCESS", &cfg.PartialSuccess)
	envBool("ASSETMON_SELF_METRICS", &cfg.SelfMetrics)
	envBool("COINBASE_FAIL_FAST", &cfg.Coinbase.FailFast)
}

func envStr(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// normalizeBasePath ensures the base path starts with "/" and has no trailing "/".
// Returns "/" for empty or root paths.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	return p
}
