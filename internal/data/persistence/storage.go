package persistence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/core/region"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

const (
	KeyRecordings = "pointer-events-recordings"
	KeySettings   = "pointer-events-settings"
	KeyROI        = "pointer-events-roi"
)

// Keys returns every key managed by Storage.
func Keys() []string {
	return []string{KeyRecordings, KeySettings, KeyROI}
}

// ErrQuotaExceeded is returned when a write would push the stored total past MaxSize.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage persists recordings, settings and the ROI. Every operation fails
// soft: errors are logged and reported as false or a zero value, and a failed
// write leaves the previous value in place.
type Storage struct {
	backend Backend
	maxSize int
	mu      sync.Mutex
}

// NewStorage wraps backend. maxSize <= 0 disables the quota.
func NewStorage(backend Backend, maxSize int) *Storage {
	return &Storage{backend: backend, maxSize: maxSize}
}

// Backend returns the underlying key-value store.
func (s *Storage) Backend() Backend {
	return s.backend
}

// MaxSize returns the quota in bytes.
func (s *Storage) MaxSize() int {
	return s.maxSize
}

// Close closes the backend.
func (s *Storage) Close() error {
	return s.backend.Close()
}

func (s *Storage) readJSON(key string, v interface{}) (bool, error) {
	data, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Storage) writeJSON(key string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.checkQuota(key, len(data)); err != nil {
		return err
	}
	return s.backend.Set(key, data)
}

func (s *Storage) checkQuota(key string, size int) error {
	if s.maxSize <= 0 {
		return nil
	}
	total := size
	for _, other := range Keys() {
		if other == key {
			continue
		}
		data, err := s.backend.Get(other)
		if err == nil {
			total += len(data)
		}
	}
	if total > s.maxSize {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, total, s.maxSize)
	}
	return nil
}

func (s *Storage) recordings() (map[string]model.Recording, error) {
	recordings := make(map[string]model.Recording)
	if _, err := s.readJSON(KeyRecordings, &recordings); err != nil {
		return nil, err
	}
	if recordings == nil {
		recordings = make(map[string]model.Recording)
	}
	return recordings, nil
}

// SaveRecording adds or replaces rec by ID.
func (s *Storage) SaveRecording(rec model.Recording) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.recordings()
	if err != nil {
		util.LogError(fmt.Sprintf("Failed to save recording: %v", err))
		return false
	}
	recordings[rec.ID] = rec
	if err := s.writeJSON(KeyRecordings, recordings); err != nil {
		util.LogError(fmt.Sprintf("Failed to save recording: %v", err))
		return false
	}
	return true
}

// GetRecordings returns every stored recording keyed by ID.
func (s *Storage) GetRecordings() map[string]model.Recording {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.recordings()
	if err != nil {
		util.LogError(fmt.Sprintf("Failed to get recordings: %v", err))
		return make(map[string]model.Recording)
	}
	return recordings
}

// GetRecording returns the recording with id.
func (s *Storage) GetRecording(id string) (model.Recording, bool) {
	rec, ok := s.GetRecordings()[id]
	return rec, ok
}

// DeleteRecording removes the recording with id. Deleting an unknown id succeeds.
func (s *Storage) DeleteRecording(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.recordings()
	if err != nil {
		util.LogError(fmt.Sprintf("Failed to delete recording: %v", err))
		return false
	}
	delete(recordings, id)
	if err := s.writeJSON(KeyRecordings, recordings); err != nil {
		util.LogError(fmt.Sprintf("Failed to delete recording: %v", err))
		return false
	}
	return true
}

// ClearRecordings removes every stored recording.
func (s *Storage) ClearRecordings() bool {
	return s.remove(KeyRecordings, "Failed to clear recordings")
}

// SaveSettings stores settings.
func (s *Storage) SaveSettings(settings model.Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON(KeySettings, settings); err != nil {
		util.LogError(fmt.Sprintf("Failed to save settings: %v", err))
		return false
	}
	return true
}

// GetSettings returns the stored settings, or the defaults with ok false.
func (s *Storage) GetSettings() (model.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := model.DefaultSettings()
	found, err := s.readJSON(KeySettings, &settings)
	if err != nil {
		util.LogError(fmt.Sprintf("Failed to get settings: %v", err))
		return model.DefaultSettings(), false
	}
	return settings, found
}

// SaveROI stores the committed ROI.
func (s *Storage) SaveROI(roi region.Rect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON(KeyROI, roi); err != nil {
		util.LogError(fmt.Sprintf("Failed to save ROI: %v", err))
		return false
	}
	return true
}

// GetROI returns the stored ROI.
func (s *Storage) GetROI() (region.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var roi region.Rect
	found, err := s.readJSON(KeyROI, &roi)
	if err != nil {
		util.LogError(fmt.Sprintf("Failed to get ROI: %v", err))
		return region.Rect{}, false
	}
	return roi, found
}

// ClearROI removes the stored ROI.
func (s *Storage) ClearROI() bool {
	return s.remove(KeyROI, "Failed to clear ROI")
}

func (s *Storage) remove(key, failure string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(key); err != nil {
		util.LogError(fmt.Sprintf("%s: %v", failure, err))
		return false
	}
	return true
}

// StorageInfo reports the size of each stored key against the quota.
func (s *Storage) StorageInfo() model.StorageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := model.StorageInfo{
		Items:   make(map[string]model.StorageItem),
		MaxSize: s.maxSize,
	}
	for _, key := range Keys() {
		data, err := s.backend.Get(key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				util.LogError(fmt.Sprintf("Failed to get storage info for %s: %v", key, err))
			}
			continue
		}

		count := 1
		if key == KeyRecordings {
			var recordings map[string]interface{}
			if err := sonic.Unmarshal(data, &recordings); err != nil {
				util.LogWarn(fmt.Sprintf("Stored recordings are unreadable: %v", err))
				count = 0
			} else {
				count = len(recordings)
			}
		}

		info.TotalSize += len(data)
		info.Items[key] = model.StorageItem{Size: len(data), ItemCount: count}
	}
	return info
}

// ClearAll removes every key managed by Storage.
func (s *Storage) ClearAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := true
	for _, key := range Keys() {
		if err := s.backend.Delete(key); err != nil {
			util.LogError(fmt.Sprintf("Failed to clear %s: %v", key, err))
			ok = false
		}
	}
	return ok
}
