package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yumemi1/animeposter/pkg/logging"
)

// PosterKind selects which poster slot a file belongs to.
type PosterKind string

const (
	PosterDaily  PosterKind = "daily"
	PosterWeekly PosterKind = "weekly"
)

// PosterInfo describes one stored poster.
type PosterInfo struct {
	Kind       PosterKind `json:"kind"`
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	Size       int64      `json:"size"`
	CreatedAt  time.Time  `json:"created_at"`
	Date       string     `json:"date,omitempty"`
	AnimeCount int        `json:"anime_count,omitempty"`
	Template   string     `json:"template,omitempty"`
}

type posterIndex struct {
	LastUpdated time.Time                 `json:"last_updated"`
	Posters     map[PosterKind]PosterInfo `json:"posters"`
}

// PosterStats summarizes the poster store.
type PosterStats struct {
	TotalPosters int       `json:"total_posters"`
	TotalSize    int64     `json:"total_size"`
	DailyExists  bool      `json:"daily_poster_exists"`
	WeeklyExists bool      `json:"weekly_poster_exists"`
	LastUpdated  time.Time `json:"last_updated"`
}

// PosterStore keeps rendered poster PNGs on disk, one current file per kind,
// indexed by a JSON file alongside them.
type PosterStore struct {
	dir    string
	maxAge time.Duration

	mu    sync.Mutex
	index posterIndex
	log   zerolog.Logger
}

// NewPosterStore opens (creating if needed) a poster store rooted at dir.
// Posters older than maxDays are treated as expired.
func NewPosterStore(dir string, maxDays int) (*PosterStore, error) {
	for _, sub := range []string{string(PosterDaily), string(PosterWeekly)} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating poster dir: %w", err)
		}
	}
	s := &PosterStore{
		dir:    dir,
		maxAge: time.Duration(maxDays) * 24 * time.Hour,
		index:  posterIndex{Posters: map[PosterKind]PosterInfo{}},
		log:    logging.GetLogger("postercache"),
	}
	if b, err := os.ReadFile(s.indexPath()); err == nil {
		if err := json.Unmarshal(b, &s.index); err != nil {
			s.log.Warn().Err(err).Msg("poster index unreadable, starting fresh")
			s.index = posterIndex{Posters: map[PosterKind]PosterInfo{}}
		}
	}
	if s.index.Posters == nil {
		s.index.Posters = map[PosterKind]PosterInfo{}
	}
	return s, nil
}

func (s *PosterStore) indexPath() string { return filepath.Join(s.dir, "index.json") }

func (s *PosterStore) posterPath(kind PosterKind, dateStr string) string {
	return filepath.Join(s.dir, string(kind), fmt.Sprintf("%s_%s.png", kind, dateStr))
}

// Save writes png to disk and records it as the current poster of its kind.
// The info argument carries optional metadata (date, anime count, template).
func (s *PosterStore) Save(kind PosterKind, png []byte, info PosterInfo) (PosterInfo, error) {
	now := time.Now()
	path := s.posterPath(kind, now.Format("20060102"))
	if err := writeFileAtomic(path, png, 0o644); err != nil {
		return PosterInfo{}, fmt.Errorf("writing poster: %w", err)
	}

	info.Kind = kind
	info.Filename = filepath.Base(path)
	info.Path = path
	info.Size = int64(len(png))
	info.CreatedAt = now

	s.mu.Lock()
	s.index.Posters[kind] = info
	s.index.LastUpdated = now
	err := s.saveIndexLocked()
	s.mu.Unlock()
	if err != nil {
		return PosterInfo{}, err
	}
	s.log.Info().Str("kind", string(kind)).Str("path", path).Int("bytes", len(png)).Msg("poster saved")
	return info, nil
}

// Get returns the current poster of the given kind together with its bytes.
// Expired or missing files drop out of the index and report absent.
func (s *PosterStore) Get(kind PosterKind) (PosterInfo, []byte, bool) {
	s.mu.Lock()
	info, ok := s.index.Posters[kind]
	s.mu.Unlock()
	if !ok {
		return PosterInfo{}, nil, false
	}
	if s.maxAge > 0 && time.Since(info.CreatedAt) > s.maxAge {
		s.log.Info().Str("kind", string(kind)).Msg("poster expired")
		_ = s.Delete(kind)
		return PosterInfo{}, nil, false
	}
	b, err := os.ReadFile(info.Path)
	if err != nil {
		s.log.Warn().Str("path", info.Path).Msg("poster file missing, dropping index entry")
		_ = s.Delete(kind)
		return PosterInfo{}, nil, false
	}
	return info, b, true
}

// Delete removes the current poster of the given kind.
func (s *PosterStore) Delete(kind PosterKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.index.Posters[kind]
	if !ok {
		return nil
	}
	if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(s.index.Posters, kind)
	return s.saveIndexLocked()
}

// CleanupOld removes poster files older than the store's max age and prunes
// stale index entries. It returns the number of files removed.
func (s *PosterStore) CleanupOld() (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, sub := range []string{string(PosterDaily), string(PosterWeekly)} {
		dir := filepath.Join(s.dir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				continue
			}
			if fi.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
					removed++
					s.log.Info().Str("file", e.Name()).Msg("removed expired poster")
				}
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for kind, info := range s.index.Posters {
		if info.CreatedAt.Before(cutoff) {
			delete(s.index.Posters, kind)
			changed = true
		}
	}
	if changed {
		if err := s.saveIndexLocked(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Stats returns a snapshot of the store.
func (s *PosterStore) Stats() PosterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := PosterStats{LastUpdated: s.index.LastUpdated}
	for kind, info := range s.index.Posters {
		st.TotalPosters++
		st.TotalSize += info.Size
		switch kind {
		case PosterDaily:
			st.DailyExists = true
		case PosterWeekly:
			st.WeeklyExists = true
		}
	}
	return st
}

func (s *PosterStore) saveIndexLocked() error {
	b, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.indexPath(), b, 0o644)
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// partial file.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
