// Package config provides the configuration loader for symdex.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using an optional YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves the configuration for cwd. The nearest .symdex.yaml in cwd
// or one of its parents is applied on top of the defaults; its directory
// becomes the repository root unless the file overrides it. Without a
// config file, cwd is the root.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "cwd", cwd)
	}

	configPath, found := findConfigFile(absCwd)
	if !found {
		cfg := domain.DefaultConfig(absCwd)
		return &cfg, nil
	}

	var file File
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	cfg, err := l.apply(configPath, &file)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

func findConfigFile(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

//nolint:cyclop // flat field-by-field overlay
func (l *Loader) apply(configPath string, file *File) (*domain.Config, error) {
	cfg := domain.DefaultConfig(resolvePath(filepath.Dir(configPath), file.Root))

	if file.Workers != nil {
		if *file.Workers < 0 {
			return nil, zerr.With(domain.ErrConfigInvalid, "workers", *file.Workers)
		}
		if *file.Workers > 0 {
			cfg.Workers = *file.Workers
		}
	}

	if file.VerifyHash != nil {
		cfg.VerifyHash = *file.VerifyHash
	}

	if file.RacyWindow != "" {
		d, err := parseDuration("racy_window", file.RacyWindow)
		if err != nil {
			return nil, err
		}
		cfg.RacyWindow = d
	}

	if file.MaxFileSize != nil {
		if *file.MaxFileSize < 0 {
			return nil, zerr.With(domain.ErrConfigInvalid, "max_file_size", *file.MaxFileSize)
		}
		cfg.MaxFileSize = *file.MaxFileSize
	}

	if file.HashMemoSize != nil {
		if *file.HashMemoSize <= 0 {
			return nil, zerr.With(domain.ErrConfigInvalid, "hash_memo_size", *file.HashMemoSize)
		}
		cfg.HashMemoSize = *file.HashMemoSize
	}

	for _, pattern := range file.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			l.Logger.Warn(fmt.Sprintf("ignoring malformed ignore pattern %q in %s", pattern, domain.ConfigFileName))
			continue
		}
		cfg.Ignore = append(cfg.Ignore, pattern)
	}

	switch file.Store.Backend {
	case "":
	case domain.StoreBackendJSON, domain.StoreBackendBadger:
		cfg.StoreBackend = file.Store.Backend
	default:
		return nil, zerr.With(domain.ErrUnknownStoreBackend, "backend", file.Store.Backend)
	}

	if file.Store.Dir != "" {
		cfg.MetaDir = resolvePath(cfg.Root, file.Store.Dir)
	}

	if file.Git.Enabled != nil {
		cfg.GitEnabled = *file.Git.Enabled
	}
	if file.Git.Pinned != nil {
		cfg.GitPinned = *file.Git.Pinned
	}
	if file.Git.DetectDirty != nil {
		cfg.GitDetectDirty = *file.Git.DetectDirty
	}

	if file.Watch.Debounce != "" {
		d, err := parseDuration("watch.debounce", file.Watch.Debounce)
		if err != nil {
			return nil, err
		}
		cfg.WatchDebounce = d
	}

	return &cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), key, value)
	}
	if d < 0 {
		return 0, zerr.With(domain.ErrConfigInvalid, key, value)
	}
	return d, nil
}

// resolvePath resolves p against base unless it is absolute.
func resolvePath(base, p string) string {
	if p == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readAndUnmarshalYAML reads a YAML file and strictly decodes it into target.
// An empty file leaves target untouched.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from the working directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
