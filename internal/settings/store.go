package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"deckysync/internal/fileutil"
	"deckysync/internal/logging"
)

// Resetter terminates every daemon-family process and returns once the host
// is considered quiesced.
type Resetter interface {
	ResetAll(ctx context.Context)
}

// Store reads and writes the persisted settings document.
type Store struct {
	path   string
	lock   *flock.Flock
	reset  Resetter
	logger *slog.Logger
}

// NewStore returns a store for the document at path. reset is invoked before a
// V1 document is rewritten as V2.
func NewStore(path string, reset Resetter, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		reset:  reset,
		logger: logging.NewComponentLogger(logger, "settings"),
	}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current settings, migrating older versions. It never fails:
// a missing or unreadable document yields Default, which is persisted.
func (s *Store) Load(ctx context.Context) Settings {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("settings file missing; writing defaults", logging.String(logging.FieldPath, s.path))
		} else {
			logging.WarnWithContext(s.logger, "settings file unreadable; using defaults", "settings_read_failed",
				logging.String(logging.FieldPath, s.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "previous settings are replaced by defaults"),
				logging.String(logging.FieldErrorHint, "check permissions on the plugin settings directory"),
			)
		}
		return s.persistDefault()
	}
	return s.Migrate(ctx, raw)
}

// Save overwrites the whole document. Callers mutate a copy and write it back.
func (s *Store) Save(settings Settings) error {
	data, err := Encode(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) persistDefault() Settings {
	defaults := Default()
	s.persist(defaults)
	return defaults
}

// persist saves settings on a path that must not fail outward.
func (s *Store) persist(settings Settings) {
	if err := s.Save(settings); err != nil {
		logging.WarnWithContext(s.logger, "settings could not be persisted", "settings_write_failed",
			logging.String(logging.FieldPath, s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the watchdog keeps reading the previous document"),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the plugin settings directory"),
		)
	}
}
