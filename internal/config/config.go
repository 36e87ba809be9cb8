// Package config handles lumi.yaml configuration parsing.
//
// The optional lumi.yaml file overrides the launcher's install-relative
// defaults:
//
//	worker_path: "/opt/lumi/lumi-server/lumi-server"  - Worker executable
//	bundle_dir: "/opt/lumi/panel"                     - Prebuilt UI bundle
//	worker_url: "http://localhost:8000"               - Worker API endpoint
//	startup_timeout_seconds: 30                       - Readiness wait bound
//	open_browser: true                                - Open the panel on start
//
// Environment variables (LUMI_WORKER_PATH, LUMI_BUNDLE_DIR, LUMI_WORKER_URL,
// LUMI_STARTUP_TIMEOUT_SECONDS, LUMI_OPEN_BROWSER) take precedence over the
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumi-desktop/lumi/internal/client"
	"github.com/lumi-desktop/lumi/internal/supervisor"
)

// FileName is the name of the configuration file.
const FileName = "lumi.yaml"

// DefaultBundleDir is the UI bundle location relative to the lumi binary.
const DefaultBundleDir = "panel"

var urlPattern = regexp.MustCompile(`^https?://[^\s]+$`)

// Config represents the lumi.yaml configuration file.
type Config struct {
	WorkerPath            string `yaml:"worker_path,omitempty"`
	BundleDir             string `yaml:"bundle_dir,omitempty"`
	WorkerURL             string `yaml:"worker_url,omitempty"`
	StartupTimeoutSeconds int    `yaml:"startup_timeout_seconds,omitempty"`
	OpenBrowser           *bool  `yaml:"open_browser,omitempty"`
}

// Load reads the configuration from path, or from FileName in the current
// directory when path is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LUMI_WORKER_PATH"); v != "" {
		c.WorkerPath = v
	}
	if v := os.Getenv("LUMI_BUNDLE_DIR"); v != "" {
		c.BundleDir = v
	}
	if v := os.Getenv("LUMI_WORKER_URL"); v != "" {
		c.WorkerURL = v
	}
	if v := os.Getenv("LUMI_STARTUP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StartupTimeoutSeconds = n
		}
	}
	if v := os.Getenv("LUMI_OPEN_BROWSER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OpenBrowser = &b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.WorkerPath == "" {
		c.WorkerPath = supervisor.DefaultWorkerPath()
	}
	if c.BundleDir == "" {
		c.BundleDir = defaultBundleDir()
	}
	if c.WorkerURL == "" {
		c.WorkerURL = client.DefaultBaseURL
	}
	if c.StartupTimeoutSeconds == 0 {
		c.StartupTimeoutSeconds = int(supervisor.DefaultStartupTimeout / time.Second)
	}
	if c.OpenBrowser == nil {
		open := true
		c.OpenBrowser = &open
	}
}

// Validate checks field formats.
func (c *Config) Validate() error {
	if !urlPattern.MatchString(c.WorkerURL) {
		return fmt.Errorf("invalid worker_url: %q", c.WorkerURL)
	}
	if c.StartupTimeoutSeconds < 0 {
		return fmt.Errorf("invalid startup_timeout_seconds: %d", c.StartupTimeoutSeconds)
	}
	return nil
}

// StartupTimeout returns the readiness wait bound as a duration.
func (c *Config) StartupTimeout() time.Duration {
	return time.Duration(c.StartupTimeoutSeconds) * time.Second
}

// ShouldOpenBrowser reports whether start opens the panel in the browser.
func (c *Config) ShouldOpenBrowser() bool {
	return c.OpenBrowser == nil || *c.OpenBrowser
}

func defaultBundleDir() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultBundleDir
	}
	return filepath.Join(filepath.Dir(exe), DefaultBundleDir)
}
