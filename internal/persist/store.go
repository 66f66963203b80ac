package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

// ProjectSnapshot captures a project's timeline for persistence. Commands
// are never persisted; only the state they produced is.
type ProjectSnapshot struct {
	FrameRate   int            `json:"frame_rate"`
	Tracks      []schema.Track `json:"tracks"`
	Clips       []schema.Clip  `json:"clips"`
	TotalFrames schema.Frame   `json:"total_frames"`
	SavedAt     time.Time      `json:"saved_at,omitempty"`
}

// Store persists project snapshots to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a project snapshot from disk.
func (s *Store) Load(projectID schema.ProjectID) (ProjectSnapshot, bool, error) {
	path := s.pathForProject(projectID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("project load miss", "project", projectID)
			}
			return ProjectSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("project load failed", "project", projectID, "err", err)
		}
		return ProjectSnapshot{}, false, err
	}
	var snapshot ProjectSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("project load failed", "project", projectID, "err", err)
		}
		return ProjectSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("project load ok", "project", projectID, "clips", len(snapshot.Clips))
	}
	return snapshot, true, nil
}

// Save writes a project snapshot to disk atomically: the snapshot lands in
// a temp file which is synced, then renamed over the target.
func (s *Store) Save(projectID schema.ProjectID, snapshot ProjectSnapshot) error {
	path := s.pathForProject(projectID)
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "project-*.json")
	if err != nil {
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		if s.log != nil {
			s.log.Warn("project save failed", "project", projectID, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("project save ok", "project", projectID, "clips", len(snapshot.Clips))
	}
	return nil
}

func (s *Store) pathForProject(projectID schema.ProjectID) string {
	name := sanitize(string(projectID))
	if name == "" {
		name = "untitled"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
