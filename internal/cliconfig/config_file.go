package cliconfig

import (
	"bytes"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ConnectTimeout  string `toml:"connect_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	DisconnectGrace string `toml:"disconnect_grace"`
	Retries         int    `toml:"retries"`
	Framing         string `toml:"framing"`
	MaxFrameBytes   int    `toml:"max_frame_bytes"`
	QueueCapacity   int    `toml:"queue_capacity"`
	SimConfigPath   string `toml:"sim_config"`
	Watch           *bool  `toml:"watch"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	NoColor         *bool  `toml:"no_color"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
// Unknown keys are rejected so typos surface instead of being ignored.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// NewFileConfig renders cfg as a FileConfig, e.g. for `config init`.
func NewFileConfig(cfg Config) FileConfig {
	watch := cfg.Watch
	noColor := cfg.NoColor
	return FileConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ConnectTimeout:  cfg.ConnectTimeout.String(),
		WriteTimeout:    cfg.WriteTimeout.String(),
		DisconnectGrace: cfg.DisconnectGrace.String(),
		Retries:         cfg.Retries,
		Framing:         cfg.Framing,
		MaxFrameBytes:   cfg.MaxFrameBytes,
		QueueCapacity:   cfg.QueueCapacity,
		SimConfigPath:   cfg.SimConfigPath,
		Watch:           &watch,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		NoColor:         &noColor,
	}
}

// WriteFileConfig writes fc as TOML to path, creating parent directories.
// An existing file is not overwritten.
func WriteFileConfig(path string, fc FileConfig) error {
	data, err := toml.Marshal(fc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.simlink/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".simlink", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setString("framing", fc.Framing, &cfg.Framing)
	s.setString("sim-config", fc.SimConfigPath, &cfg.SimConfigPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("write-timeout", fc.WriteTimeout, &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("grace", fc.DisconnectGrace, &cfg.DisconnectGrace); err != nil {
		return err
	}

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("retries", fc.Retries, &cfg.Retries)
	s.setInt("max-frame-bytes", fc.MaxFrameBytes, &cfg.MaxFrameBytes)
	s.setInt("queue-capacity", fc.QueueCapacity, &cfg.QueueCapacity)

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("no-color", fc.NoColor, &cfg.NoColor)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
