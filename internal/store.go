package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"
)

const (
	// DatabaseVersion tags the layout of the state file. Files carrying any
	// other version are discarded on load.
	DatabaseVersion = "1.0.0"
	// DefaultDatabaseFile is where the last-seen state is kept unless configured otherwise.
	DefaultDatabaseFile = "seen_payloads.json"
	stateFileMode       = 0o644
)

// Errors used by the state store.
var (
	ErrStateLoad       = errors.New("could not load payload database")
	ErrStateMissing    = fmt.Errorf("%w: file missing", ErrStateLoad)
	ErrStateCorrupt    = fmt.Errorf("%w: invalid content", ErrStateLoad)
	ErrVersionMismatch = fmt.Errorf("%w: version mismatch", ErrStateLoad)
	ErrStatePersist    = errors.New("could not write payload database")
)

// SightingDatabase maps every payload callsign to the time it was last seen.
type SightingDatabase struct {
	Version  string
	Payloads map[string]time.Time
}

// NewSightingDatabase returns an empty database tagged with the current version.
func NewSightingDatabase() *SightingDatabase {
	return &SightingDatabase{
		Version:  DatabaseVersion,
		Payloads: make(map[string]time.Time),
	}
}

// Len is the number of known payloads.
func (db *SightingDatabase) Len() int {
	return len(db.Payloads)
}

// stateFile mirrors the JSON layout on disk. Timestamps are unix seconds as
// floats, which keeps older files with fractional seconds readable.
type stateFile struct {
	Version  string             `json:"version"`
	Payloads map[string]float64 `json:"payloads"`
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*float64(time.Second))))
}

// StateStore persists the sighting database between runs.
type StateStore interface {
	// Load never fails: unusable state is replaced by an empty database.
	Load() *SightingDatabase
	// Save overwrites the persisted state with db in full.
	Save(db *SightingDatabase) error
}

// FileStore keeps the database in a single JSON file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if path == "" {
		path = DefaultDatabaseFile
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// TryLoad reads the database file and reports why it can't be used, if so.
func (s *FileStore) TryLoad() (*SightingDatabase, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("tryLoad: %w: %s", ErrStateMissing, s.path)
		}
		return nil, fmt.Errorf("tryLoad: %w: %w", ErrStateLoad, err)
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("tryLoad: %w: %w", ErrStateCorrupt, err)
	}

	if file.Version != DatabaseVersion {
		return nil, fmt.Errorf("tryLoad: %w: got %q, want %q", ErrVersionMismatch, file.Version, DatabaseVersion)
	}

	if file.Payloads == nil {
		return nil, fmt.Errorf("tryLoad: %w: no payloads", ErrStateCorrupt)
	}

	db := NewSightingDatabase()
	for callsign, lastSeen := range file.Payloads {
		db.Payloads[callsign] = fromUnixSeconds(lastSeen)
	}

	return db, nil
}

// Load returns the persisted database or, if that fails for any reason, a
// fresh one which is written out right away to replace the unusable file.
func (s *FileStore) Load() *SightingDatabase {
	db, err := s.TryLoad()
	if err == nil {
		s.logger.Info("loaded payload database", "path", s.path, "payloads", db.Len())
		return db
	}

	s.logger.Error("could not load payload database, clearing out database", "path", s.path, "error", err)

	db = NewSightingDatabase()
	if saveErr := s.Save(db); saveErr != nil {
		s.logger.Error("could not reset payload database", "path", s.path, "error", saveErr)
	}

	return db
}

// Save writes db to a temporary file next to the target and renames it into
// place, so an interrupted write never leaves a half-written database behind.
func (s *FileStore) Save(db *SightingDatabase) error {
	file := stateFile{
		Version:  db.Version,
		Payloads: make(map[string]float64, len(db.Payloads)),
	}
	for callsign, lastSeen := range db.Payloads {
		file.Payloads[callsign] = toUnixSeconds(lastSeen)
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("save: %w: %w", ErrStatePersist, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save: %w: %w", ErrStatePersist, err)
	}
	tmpName := tmp.Name()

	writeErr := func() error {
		defer tmp.Close()
		if err := tmp.Chmod(stateFileMode); err != nil {
			return err
		}
		if _, err := tmp.Write(data); err != nil {
			return err
		}
		return tmp.Sync()
	}()
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save: %w: %w", ErrStatePersist, writeErr)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save: %w: %w", ErrStatePersist, err)
	}

	s.logger.Debug("wrote payload database", "path", s.path, "payloads", len(file.Payloads))
	return nil
}
