package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

// Config captures everything railcab needs to reach the railroad servers.
type Config struct {
	LocomotiveDirectory string
	SwitchDirectory     string
	PollInterval        time.Duration
	DirectoryInterval   time.Duration
	RequestTimeout      time.Duration
	Workers             int
	ConflictRetries     int
	Session             time.Duration
	LogFile             string
	LogLevel            zapcore.Level
}

const (
	defaultConfigPath          = "~/.config/railcab/config.toml"
	defaultLocomotiveDirectory = "http://127.0.0.1:8095/locomotive"
	defaultSwitchDirectory     = "http://127.0.0.1:8095/switch"
	defaultPollInterval        = 2 * time.Second
	defaultDirectoryInterval   = 10 * time.Second
	defaultRequestTimeout      = 5 * time.Second
	defaultWorkers             = 4
	defaultConflictRetries     = 1
	defaultLogFile             = "~/.local/state/railcab/railcab.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LocomotiveDirectory: defaultLocomotiveDirectory,
		SwitchDirectory:     defaultSwitchDirectory,
		PollInterval:        defaultPollInterval,
		DirectoryInterval:   defaultDirectoryInterval,
		RequestTimeout:      defaultRequestTimeout,
		Workers:             defaultWorkers,
		ConflictRetries:     defaultConflictRetries,
		LogFile:             mustExpand(defaultLogFile),
		LogLevel:            zapcore.InfoLevel,
	}
}

// Load locates and parses the railcab config, falling back to defaults when
// the file or individual values are missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LocomotiveDirectory string `toml:"locomotive_directory"`
		SwitchDirectory     string `toml:"switch_directory"`
		PollInterval        string `toml:"poll_interval"`
		DirectoryInterval   string `toml:"directory_interval"`
		RequestTimeout      string `toml:"request_timeout"`
		Workers             *int   `toml:"workers"`
		ConflictRetries     *int   `toml:"conflict_retries"`
		Session             string `toml:"session"`
		LogFile             string `toml:"log_file"`
		LogLevel            string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.LocomotiveDirectory); v != "" {
		cfg.LocomotiveDirectory = v
	}
	if v := strings.TrimSpace(raw.SwitchDirectory); v != "" {
		cfg.SwitchDirectory = v
	}

	durations := []struct {
		key  string
		raw  string
		dest *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"directory_interval", raw.DirectoryInterval, &cfg.DirectoryInterval},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"session", raw.Session, &cfg.Session},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		if parsed < 0 {
			return Config{}, fmt.Errorf("parse config: %s must not be negative", d.key)
		}
		if parsed > 0 || d.key == "session" {
			*d.dest = parsed
		}
	}

	if raw.Workers != nil && *raw.Workers > 0 {
		cfg.Workers = *raw.Workers
	}
	if raw.ConflictRetries != nil && *raw.ConflictRetries >= 0 {
		cfg.ConflictRetries = *raw.ConflictRetries
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		level, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
