package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SIMLINK_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("SIMLINK_HOST"), &cfg.Host)
	s.setString("framing", os.Getenv("SIMLINK_FRAMING"), &cfg.Framing)
	s.setString("sim-config", os.Getenv("SIMLINK_SIM_CONFIG"), &cfg.SimConfigPath)
	s.setString("log-level", os.Getenv("SIMLINK_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("SIMLINK_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("timeout", os.Getenv("SIMLINK_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("write-timeout", os.Getenv("SIMLINK_WRITE_TIMEOUT"), &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("grace", os.Getenv("SIMLINK_DISCONNECT_GRACE"), &cfg.DisconnectGrace); err != nil {
		return err
	}

	if err := s.setIntFromString("port", os.Getenv("SIMLINK_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", os.Getenv("SIMLINK_RETRIES"), &cfg.Retries); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-bytes", os.Getenv("SIMLINK_MAX_FRAME_BYTES"), &cfg.MaxFrameBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-capacity", os.Getenv("SIMLINK_QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("SIMLINK_WATCH"), &cfg.Watch)
	s.setBoolFromString("no-color", os.Getenv("SIMLINK_NO_COLOR"), &cfg.NoColor)
	if os.Getenv("NO_COLOR") != "" && !changed["no-color"] {
		cfg.NoColor = true
	}

	return nil
}
