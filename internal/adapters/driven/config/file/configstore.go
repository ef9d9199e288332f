package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Store is a TOML-backed run configuration store. Values missing from
// the file keep their defaults.
type Store struct {
	mu       sync.RWMutex
	filePath string
	config   domain.Config
}

// NewStore creates a config store rooted at configDir. If configDir is
// empty, defaults to ~/.bookrag. A missing config file is not an
// error; defaults apply.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".bookrag")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   domain.DefaultConfig(),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the current configuration snapshot.
func (s *Store) Config() domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Load reads the TOML file over a fresh default configuration.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultConfig()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.config = cfg
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	s.config = cfg
	return nil
}

// Save persists the given configuration and makes it current.
func (s *Store) Save(cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	s.config = cfg
	return nil
}

// Watch reloads the file on change and calls onChange with the new
// configuration until ctx is cancelled. Parse failures keep the
// previous configuration.
func (s *Store) Watch(ctx context.Context, onChange func(domain.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace the file, which would drop
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.filePath {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if err := s.Load(); err != nil {
					logger.Error("reload config: %v", err)
					continue
				}
				logger.Info("config reloaded from %s", s.filePath)
				if onChange != nil {
					onChange(s.Config())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher: %v", err)
			}
		}
	}()
	return nil
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}
