package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime settings. Values come from the TOML file named by
// VODFORGE_CONFIG (if any), then VODFORGE_* environment variables override
// them.
type Config struct {
	DataDir    string `toml:"data_dir"`
	WorkDir    string `toml:"work_dir"`
	ListenAddr string `toml:"listen_addr"`

	Storage StorageConfig `toml:"storage"`

	SourcePrefix    string  `toml:"source_prefix"`
	DownloadTimeout int     `toml:"download_timeout_seconds"`
	EncodeWorkers   int     `toml:"encode_workers"`
	Complexity      float64 `toml:"complexity"`

	StatusTTL        int `toml:"status_ttl_seconds"`
	StatusMaxEntries int `toml:"status_max_entries"`

	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// StorageConfig selects the storage backend. CredentialsKey names an entry of
// the credentials store whose access info is merged under these settings.
type StorageConfig struct {
	Backend        string `toml:"backend"`
	Bucket         string `toml:"bucket"`
	CredentialsKey string `toml:"credentials_key"`
	Region         string `toml:"region"`
	Endpoint       string `toml:"endpoint"`
	PublicURL      string `toml:"public_url"`
	ServeDir       string `toml:"serve_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:    "./data",
		WorkDir:    "./work",
		ListenAddr: ":8080",
		Storage: StorageConfig{
			Backend:   "directServe",
			Bucket:    "media",
			PublicURL: "http://localhost:8080",
			ServeDir:  "./serve",
		},
		SourcePrefix:     "uploads",
		DownloadTimeout:  300,
		EncodeWorkers:    1,
		Complexity:       1.0,
		StatusTTL:        int((24 * time.Hour).Seconds()),
		StatusMaxEntries: 10000,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		LogLevel:         "info",
	}
}

// Load builds the configuration from defaults, the optional TOML file and
// the environment, in that order of precedence (environment wins).
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("VODFORGE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"VODFORGE_DATA_DIR":        &c.DataDir,
		"VODFORGE_WORK_DIR":        &c.WorkDir,
		"VODFORGE_LISTEN_ADDR":     &c.ListenAddr,
		"VODFORGE_STORAGE_BACKEND": &c.Storage.Backend,
		"VODFORGE_BUCKET":          &c.Storage.Bucket,
		"VODFORGE_CREDENTIALS_KEY": &c.Storage.CredentialsKey,
		"VODFORGE_REGION":          &c.Storage.Region,
		"VODFORGE_ENDPOINT":        &c.Storage.Endpoint,
		"VODFORGE_PUBLIC_URL":      &c.Storage.PublicURL,
		"VODFORGE_SERVE_DIR":       &c.Storage.ServeDir,
		"VODFORGE_SOURCE_PREFIX":   &c.SourcePrefix,
		"VODFORGE_FFMPEG":          &c.FFmpegPath,
		"VODFORGE_FFPROBE":         &c.FFprobePath,
		"VODFORGE_LOG_LEVEL":       &c.LogLevel,
		"VODFORGE_LOG_FILE":        &c.LogFile,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"VODFORGE_DOWNLOAD_TIMEOUT":   &c.DownloadTimeout,
		"VODFORGE_ENCODE_WORKERS":     &c.EncodeWorkers,
		"VODFORGE_STATUS_TTL":         &c.StatusTTL,
		"VODFORGE_STATUS_MAX_ENTRIES": &c.StatusMaxEntries,
	}
	for name, dst := range intVars {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	if v := os.Getenv("VODFORGE_COMPLEXITY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VODFORGE_COMPLEXITY: %w", err)
		}
		c.Complexity = f
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.WorkDir == "" {
		errs = append(errs, errors.New("work_dir must be set"))
	}
	if c.Storage.Backend == "" {
		errs = append(errs, errors.New("storage.backend must be set"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket must be set"))
	}
	if c.EncodeWorkers < 1 {
		errs = append(errs, fmt.Errorf("encode_workers must be at least 1, got %d", c.EncodeWorkers))
	}
	if c.DownloadTimeout < 0 {
		errs = append(errs, fmt.Errorf("download_timeout_seconds must not be negative, got %d", c.DownloadTimeout))
	}
	return errors.Join(errs...)
}

func (c Config) DownloadTimeoutDuration() time.Duration {
	return time.Duration(c.DownloadTimeout) * time.Second
}

func (c Config) StatusTTLDuration() time.Duration {
	return time.Duration(c.StatusTTL) * time.Second
}
