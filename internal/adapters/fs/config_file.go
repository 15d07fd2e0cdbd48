// Package fs persists the simulation configuration on the local file system.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/helios-robotics/simlink/internal/domain"
)

// lockRetryDelay is how often a blocked Save polls the lock file.
const lockRetryDelay = 50 * time.Millisecond

// ConfigFileRepository implements ports.ConfigRepository with JSON files.
type ConfigFileRepository struct{}

// NewConfigFileRepository creates a new ConfigFileRepository.
func NewConfigFileRepository() *ConfigFileRepository {
	return &ConfigFileRepository{}
}

// Load reads and decodes the configuration at path.
// A missing file is reported as an error wrapping os.ErrNotExist.
func (r *ConfigFileRepository) Load(ctx context.Context, path string) (domain.ConfigPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var cfg domain.ConfigPayload
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s: not a JSON object", domain.ErrInvalidConfig, path)
	}
	return cfg, nil
}

// Save replaces the configuration at path atomically.
// It writes a temp file in the same directory then renames it over path,
// holding an advisory lock on <path>.lock so concurrent savers never
// interleave.
func (r *ConfigFileRepository) Save(ctx context.Context, path string, cfg domain.ConfigPayload) error {
	if cfg == nil {
		cfg = domain.ConfigPayload{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	lock := flock.New(LockPath(path))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock config: %s is held", LockPath(path))
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp config: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// LockPath returns the advisory lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// Exists reports whether a configuration file exists at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
