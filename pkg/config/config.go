package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskcamp/taskcamp/pkg/logutils"
)

type Config struct {
	// API Settings
	BaseURL string        // The base URL of the taskcamp API, e.g. http://localhost:8000/api/v1
	Timeout time.Duration // Per-request timeout for outbound calls.

	// Credential Settings
	CredentialsFile string // Where access/refresh tokens are persisted.

	// Cache Settings
	MemberCacheSize int // Max projects whose member lists count as already fetched.
}

// fileConfig is the YAML schema of the config file. Durations are
// written in time.ParseDuration form, e.g. "30s".
type fileConfig struct {
	BaseURL         string `yaml:"baseURL"`
	Timeout         string `yaml:"timeout"`
	CredentialsFile string `yaml:"credentialsFile"`
	MemberCacheSize int    `yaml:"memberCacheSize"`
}

const (
	defaultBaseURL         = "http://localhost:8000/api/v1"
	defaultTimeout         = 10 * time.Second
	defaultMemberCacheSize = 128
)

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

// initConfig reads the optional YAML config file and fills in defaults.
// The file path comes from TASKCAMP_CONFIG, falling back to
// ~/.config/taskcamp/config.yaml. A missing file is not an error: every
// setting has a usable default, and TASKCAMP_API_URL overrides the base URL.
func initConfig() *Config {
	cfg := Default()

	configPath := os.Getenv("TASKCAMP_CONFIG")
	if configPath == "" {
		configPath = filepath.Join(configDir(), "config.yaml")
	}

	if err := readConfig(configPath, cfg); err != nil {
		if !os.IsNotExist(err) {
			logutils.Log.WithError(err).Warn("read config: ", configPath)
		}
	}

	if url := os.Getenv("TASKCAMP_API_URL"); url != "" {
		cfg.BaseURL = url
	}
	return cfg
}

// Default returns a config with every field set to its default value.
func Default() *Config {
	return &Config{
		BaseURL:         defaultBaseURL,
		Timeout:         defaultTimeout,
		CredentialsFile: filepath.Join(configDir(), "credentials.json"),
		MemberCacheSize: defaultMemberCacheSize,
	}
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "taskcamp")
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.BaseURL != "" {
		config.BaseURL = file.BaseURL
	}
	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return err
		}
		config.Timeout = timeout
	}
	if file.CredentialsFile != "" {
		config.CredentialsFile = file.CredentialsFile
	}
	if file.MemberCacheSize > 0 {
		config.MemberCacheSize = file.MemberCacheSize
	}
	return nil
}
