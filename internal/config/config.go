package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline settings. Values come from environment
// variables; cmd/ivt lets command-line flags override them.
type Config struct {
	UPath   string // eastward flux (uflux) input file
	VPath   string // northward flux (vflux) input file
	OutPath string // computed IVT output file
	UVar    string // variable name in the u input
	VVar    string // variable name in the v input

	PlotPath      string // quicklook PNG path; empty disables rendering
	PlotTimeIndex int    // time step rendered in the quicklook

	MetricsAddr     string // optional /healthz /readyz /metrics listener
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. Required paths are checked later by Validate so that flags
// get a chance to fill them in.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	plotTimeIndex, err := parsePlotTimeIndex()
	if err != nil {
		return nil, err
	}

	return &Config{
		UPath:   os.Getenv("UFLUX_FILE"),
		VPath:   os.Getenv("VFLUX_FILE"),
		OutPath: os.Getenv("OUTPUT_FILE"),
		UVar:    envOrDefault("UFLUX_VAR", "uflux"),
		VVar:    envOrDefault("VFLUX_VAR", "vflux"),

		PlotPath:      os.Getenv("PLOT_FILE"),
		PlotTimeIndex: plotTimeIndex,

		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// Validate checks the settings that must be present before the pipeline can
// run. Called after flag parsing.
func (c *Config) Validate() error {
	if c.UPath == "" {
		return errors.New("uflux input path is required (-u or UFLUX_FILE)")
	}
	if c.VPath == "" {
		return errors.New("vflux input path is required (-v or VFLUX_FILE)")
	}
	if c.OutPath == "" {
		return errors.New("output path is required (-o or OUTPUT_FILE)")
	}
	if c.UVar == "" || c.VVar == "" {
		return errors.New("input variable names must not be empty")
	}
	if c.PlotTimeIndex < 0 {
		return errors.New("plot time index must not be negative")
	}
	return nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", s)
	}
	return d, nil
}

func parsePlotTimeIndex() (int, error) {
	s := os.Getenv("PLOT_TIME_INDEX")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid PLOT_TIME_INDEX %q", s)
	}
	return n, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
