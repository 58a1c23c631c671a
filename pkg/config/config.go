// Package config holds all tunable settings for the NotebookLM protocol
// client: endpoints, filesystem paths, and every fixed delay or attempt
// budget the polling state machine uses. The delays are deliberate
// substitutes for readiness signals the remote service does not provide,
// so they stay named and configurable rather than hidden in call sites.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// BaseURL is the application entry point used for session acquisition.
	BaseURL string `yaml:"base_url"`

	// RPCPath is the batch RPC endpoint path relative to BaseURL.
	RPCPath string `yaml:"rpc_path"`

	// StreamPath is the streamed-generation endpoint path relative to BaseURL.
	StreamPath string `yaml:"stream_path"`

	// LoginDomain marks an identity-provider redirect (login required).
	LoginDomain string `yaml:"login_domain"`

	// Locale is sent as the hl query parameter on every RPC.
	Locale string `yaml:"locale"`

	// Headless controls whether the browser runs without a visible window.
	// Interactive login is only possible in headed mode.
	Headless bool `yaml:"headless"`

	// UserDataDir is the persistent browser profile directory. Login state
	// survives process restarts through this profile; session tokens do not.
	UserDataDir string `yaml:"user_data_dir"`

	// CachePath is the notebook/source identifier cache file.
	CachePath string `yaml:"cache_path"`

	// LastRunPath records the most recently created notebook id.
	LastRunPath string `yaml:"last_run_path"`

	// ArtifactURLPatterns are glob patterns identifying a generated
	// artifact URL inside a list-artifacts response.
	ArtifactURLPatterns []string `yaml:"artifact_url_patterns"`

	// TokenRetryDelay covers client-side rendering lag before the one
	// token-scrape retry.
	TokenRetryDelay Duration `yaml:"token_retry_delay"`

	// SettleDelay is the wait between add-source and trigger (remote
	// indexing latency).
	SettleDelay Duration `yaml:"settle_delay"`

	// SummaryIndexDelay is the longer wait before requesting a streamed
	// summary against a freshly added source.
	SummaryIndexDelay Duration `yaml:"summary_index_delay"`

	// PollInterval is the sleep between artifact polling attempts.
	PollInterval Duration `yaml:"poll_interval"`

	// PollAttempts is the polling budget before giving up.
	PollAttempts int `yaml:"poll_attempts"`

	// StreamTimeout bounds the streamed-generation RPC, which is slow.
	StreamTimeout Duration `yaml:"stream_timeout"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "2m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no config file overrides it.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	appDir := filepath.Join(home, ".notebooklm")

	return &Config{
		BaseURL:     "https://notebooklm.google.com",
		RPCPath:     "/_/LabsTailwindUi/data/batchexecute",
		StreamPath:  "/_/LabsTailwindUi/data/google.internal.labs.tailwind.orchestration.v1.LabsTailwindOrchestrationService/GenerateFreeFormStreamed",
		LoginDomain: "accounts.google.com",
		Locale:      "en",
		Headless:    true,
		UserDataDir: filepath.Join(appDir, "user_data"),
		CachePath:   filepath.Join(appDir, "cache.json"),
		LastRunPath: filepath.Join(appDir, "last_run.json"),
		ArtifactURLPatterns: []string{
			"*googleusercontent.com*",
			"data:image/*",
		},
		TokenRetryDelay:   Duration{2 * time.Second},
		SettleDelay:       Duration{10 * time.Second},
		SummaryIndexDelay: Duration{30 * time.Second},
		PollInterval:      Duration{10 * time.Second},
		PollAttempts:      30,
		StreamTimeout:     Duration{2 * time.Minute},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// RPCEndpoint returns the absolute batch RPC endpoint URL.
func (c *Config) RPCEndpoint() string {
	return c.BaseURL + c.RPCPath
}

// StreamEndpoint returns the absolute streamed-generation endpoint URL.
func (c *Config) StreamEndpoint() string {
	return c.BaseURL + c.StreamPath
}
