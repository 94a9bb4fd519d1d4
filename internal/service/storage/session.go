package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/model"
	"foodcurator/internal/repository"

	"github.com/google/uuid"
)

// ErrNothingToReject is returned when a session has no saved captures.
var ErrNothingToReject = errors.New("no capture to reject")

const captureTimestampLayout = "20060102_150405"

var captureNamePattern = regexp.MustCompile(`^(.+)_(\d{8}_\d{6})_(\d{6})\.jpe?g$`)

// CaptureFilename returns <dish>_<YYYYMMDD_HHMMSS_micro>.jpg.
func CaptureFilename(dish string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%06d.jpg", dish, ts.Format(captureTimestampLayout), ts.Nanosecond()/int(time.Microsecond))
}

// ParseCaptureFilename extracts the dish and timestamp from a capture filename.
func ParseCaptureFilename(filename string) (string, time.Time, error) {
	m := captureNamePattern.FindStringSubmatch(strings.ToLower(filename))
	if m == nil {
		return "", time.Time{}, fmt.Errorf("invalid capture filename: %s", filename)
	}

	ts, err := time.ParseInLocation(captureTimestampLayout, m[2], time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	micro, _ := strconv.Atoi(m[3])
	return m[1], ts.Add(time.Duration(micro) * time.Microsecond), nil
}

// Session is one guided capture run for a single dish.
type Session struct {
	ID      string
	Dish    string
	Dir     string
	Started time.Time
	saved   []string
}

// Count returns the number of captures currently kept in the session.
func (s *Session) Count() int {
	return len(s.saved)
}

// Saved returns the paths of kept captures in capture order.
func (s *Session) Saved() []string {
	return append([]string(nil), s.saved...)
}

// SessionStore writes accepted captures to disk and to the catalog.
type SessionStore struct {
	rootDir   string
	logger    *logger.Logger
	imageRepo repository.ImageRepository
	mu        sync.Mutex
}

// NewSessionStore creates a store rooted at the raw collection directory. imageRepo may be nil.
func NewSessionStore(config *config.Config, logger *logger.Logger, imageRepo repository.ImageRepository) *SessionStore {
	return &SessionStore{
		rootDir:   config.RawCollectionDirectory,
		logger:    logger,
		imageRepo: imageRepo,
	}
}

// NormalizeDishName lowercases a dish name and replaces spaces with underscores.
func NormalizeDishName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Open creates <root>/<dish>_session_<unix> and a new session id.
func (s *SessionStore) Open(dish string) (*Session, error) {
	dish = NormalizeDishName(dish)
	if dish == "" {
		return nil, errors.New("dish name is required")
	}

	now := time.Now()
	dir := filepath.Join(s.rootDir, fmt.Sprintf("%s_session_%d", dish, now.Unix()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	session := &Session{
		ID:      uuid.NewString(),
		Dish:    dish,
		Dir:     dir,
		Started: now,
	}
	s.logger.Info("Capture session %s started for %s in %s", session.ID, dish, dir)
	return session, nil
}

// Save writes an accepted capture under CaptureFilename and catalogues it.
func (s *SessionStore) Save(session *Session, img model.CapturedImage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(img.Data) == 0 {
		return "", errors.New("empty capture")
	}

	filename := CaptureFilename(session.Dish, img.Timestamp)
	fullpath := filepath.Join(session.Dir, filename)

	if err := os.WriteFile(fullpath, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save capture %s: %w", filename, err)
	}
	session.saved = append(session.saved, fullpath)

	if s.imageRepo != nil {
		fingerprint := ""
		if fp, err := FingerprintBytes(img.Data); err == nil {
			fingerprint = fp.String()
		} else {
			s.logger.Warning("Capture %s has no fingerprint: %v", filename, err)
		}

		record := &model.Image{
			Filename:    filename,
			SessionID:   img.SessionID,
			Dish:        session.Dish,
			Timestamp:   img.Timestamp,
			FilePath:    fullpath,
			FileSize:    int64(len(img.Data)),
			Fingerprint: fingerprint,
			Status:      model.StatusAccepted,
		}
		if _, err := s.imageRepo.Insert(record); err != nil {
			s.logger.Error("Error saving capture to database %s: %v", filename, err)
		}
	}

	s.logger.Info("Captured %s (%d in session)", filename, len(session.saved))
	return fullpath, nil
}

// RejectLast deletes the most recent capture of the session from disk and catalog.
func (s *SessionStore) RejectLast(session *Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(session.saved) == 0 {
		return "", ErrNothingToReject
	}

	last := session.saved[len(session.saved)-1]
	if err := os.Remove(last); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove %s: %w", last, err)
	}
	session.saved = session.saved[:len(session.saved)-1]

	if s.imageRepo != nil {
		if err := s.imageRepo.DeleteByFilePath(last); err != nil {
			s.logger.Error("Error removing capture from database %s: %v", last, err)
		}
	}

	s.logger.Info("Rejected %s", filepath.Base(last))
	return last, nil
}
