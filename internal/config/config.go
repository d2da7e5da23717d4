package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Repo    RepoConfig    `yaml:"repo"`
	Book    BookConfig    `yaml:"book"`
	APIDoc  APIDocConfig  `yaml:"apidoc"`
	Output  OutputConfig  `yaml:"output"`
	Publish PublishConfig `yaml:"publish"`
	Failure FailurePolicy `yaml:"failure_policy,omitempty"`
	Retry   RetryConfig   `yaml:"retry,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// RepoConfig identifies the documented project's repository.
type RepoConfig struct {
	Path          string `yaml:"path"`                     // local working copy used as the build workspace
	DefaultBranch string `yaml:"default_branch,omitempty"` // branch representing the unreleased state
}

// BookConfig describes the external book compiler invocation.
// Command arguments may reference {source} and {dest} placeholders.
type BookConfig struct {
	Command []string `yaml:"command,omitempty"`
}

// APIDocConfig describes the external API-reference generator invocation.
// Command arguments may reference {source}, {dest} and {cache} placeholders.
// The cache directory is additionally exported through CacheEnv so tools like
// cargo pick it up without explicit flags.
type APIDocConfig struct {
	Command  []string `yaml:"command,omitempty"`
	CacheEnv string   `yaml:"cache_env,omitempty"`
	CopyFrom string   `yaml:"copy_from,omitempty"` // path under {cache} to copy into {dest} after a successful run
}

// OutputConfig represents output tree configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// PublishConfig describes the hosting upload step.
// Command arguments may reference {source} and {dest} placeholders.
type PublishConfig struct {
	Command       []string `yaml:"command,omitempty"`
	Destination   string   `yaml:"destination"`
	CredentialEnv string   `yaml:"credential_env,omitempty"` // env var holding the publish credential
}

// RetryConfig holds raw retry/backoff settings for the publish step.
// Delays are duration strings ("1s", "500ms") parsed during validation.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`
	InitialDelay string           `yaml:"initial_delay,omitempty"`
	MaxDelay     string           `yaml:"max_delay,omitempty"`
	MaxRetries   int              `yaml:"max_retries,omitempty"`
}

// Delays returns the parsed delay durations, zero-valued when unset.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration, err error) {
	if r.InitialDelay != "" {
		if initial, err = time.ParseDuration(r.InitialDelay); err != nil {
			return 0, 0, fmt.Errorf("invalid retry.initial_delay: %w", err)
		}
	}
	if r.MaxDelay != "" {
		if maxDelay, err = time.ParseDuration(r.MaxDelay); err != nil {
			return 0, 0, fmt.Errorf("invalid retry.max_delay: %w", err)
		}
	}
	return initial, maxDelay, nil
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// HistoryConfig controls the run-history store.
type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Repo.DefaultBranch == "" {
		c.Repo.DefaultBranch = "master"
	}
	if len(c.Book.Command) == 0 {
		c.Book.Command = []string{"mdbook", "build", "--dest-dir", "{dest}"}
	}
	if len(c.APIDoc.Command) == 0 {
		c.APIDoc.Command = []string{"cargo", "doc", "--no-deps"}
	}
	if c.APIDoc.CacheEnv == "" {
		c.APIDoc.CacheEnv = "CARGO_TARGET_DIR"
	}
	if c.APIDoc.CopyFrom == "" {
		c.APIDoc.CopyFrom = "doc"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./book"
		c.Output.Clean = true
	}
	if len(c.Publish.Command) == 0 {
		c.Publish.Command = []string{"rsync", "-a", "--delete", "{source}/", "{dest}"}
	}
	if c.Publish.CredentialEnv == "" {
		c.Publish.CredentialEnv = "DOCSHIP_PUBLISH_TOKEN"
	}
	if c.Failure == "" {
		c.Failure = FailureFailFast
	}
	if c.History.Path == "" {
		c.History.Path = "./docship-history.db"
	}
}

// Validate checks cross-field invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Repo.Path == "" {
		return fmt.Errorf("repo.path is required")
	}
	if NormalizeFailurePolicy(string(c.Failure)) == "" {
		return fmt.Errorf("unknown failure_policy: %q (expected failfast or continue)", c.Failure)
	}
	if c.Retry.Backoff != "" && NormalizeRetryBackoff(string(c.Retry.Backoff)) == "" {
		return fmt.Errorf("unknown retry.backoff: %q", c.Retry.Backoff)
	}
	if _, _, err := c.Retry.Delays(); err != nil {
		return err
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Repo: RepoConfig{
			Path:          ".",
			DefaultBranch: "master",
		},
		Book: BookConfig{
			Command: []string{"mdbook", "build", "doc/book", "--dest-dir", "{dest}"},
		},
		APIDoc: APIDocConfig{
			Command:  []string{"cargo", "doc", "--no-deps"},
			CacheEnv: "CARGO_TARGET_DIR",
			CopyFrom: "doc",
		},
		Output: OutputConfig{
			Directory: "./book",
			Clean:     true,
		},
		Publish: PublishConfig{
			Command:       []string{"rsync", "-a", "--delete", "{source}/", "{dest}"},
			Destination:   "docs@example.com:/srv/docs/book",
			CredentialEnv: "DOCSHIP_PUBLISH_TOKEN",
		},
		Failure: FailureFailFast,
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
