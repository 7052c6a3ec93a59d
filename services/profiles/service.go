package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"reelstream/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
)

// Service manages the single preference profile each user owns. Profiles
// are created lazily with defaults the first time anything asks for them.
type Service struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]models.Profile
}

// NewService creates a profiles service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "profiles.json"),
		profiles: make(map[string]models.Profile),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Get returns the user's profile, creating it with defaults when absent.
func (s *Service) Get(userID string) (models.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Profile{}, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, created := s.getOrCreateLocked(userID)
	if created {
		if err := s.saveLocked(); err != nil {
			return models.Profile{}, err
		}
	}

	return profile, nil
}

// SetPreferences applies a partial update to the user's profile. Nil patch
// fields keep their stored values; set fields overwrite them, including
// explicit false and empty string. An all-nil patch still materialises the
// profile with defaults.
func (s *Service) SetPreferences(userID string, patch models.PreferencePatch) (models.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Profile{}, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, _ := s.getOrCreateLocked(userID)

	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.AvatarColor != nil {
		profile.AvatarColor = *patch.AvatarColor
	}
	if patch.IsKids != nil {
		profile.IsKids = *patch.IsKids
	}
	if patch.AutoplayNext != nil {
		profile.AutoplayNext = *patch.AutoplayNext
	}
	if patch.AutoplayPreviews != nil {
		profile.AutoplayPreviews = *patch.AutoplayPreviews
	}
	if patch.Language != nil {
		profile.Language = *patch.Language
	}
	profile.UpdatedAt = time.Now().UTC()

	s.profiles[userID] = profile

	if err := s.saveLocked(); err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}

// Delete removes the user's profile. Deleting an absent profile is not an error.
func (s *Service) Delete(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[userID]; !exists {
		return nil
	}

	delete(s.profiles, userID)

	return s.saveLocked()
}

func (s *Service) getOrCreateLocked(userID string) (models.Profile, bool) {
	profile, exists := s.profiles[userID]
	if exists {
		return profile, false
	}

	profile = models.NewProfile(userID, time.Now().UTC())
	s.profiles[userID] = profile
	return profile, true
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.profiles = make(map[string]models.Profile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open profiles: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	if len(data) == 0 {
		s.profiles = make(map[string]models.Profile)
		return nil
	}

	var byUser map[string]models.Profile
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode profiles: %w", err)
	}

	s.profiles = make(map[string]models.Profile, len(byUser))
	for userID, profile := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		profile.UserID = userID
		s.profiles[userID] = profile
	}

	return nil
}

func (s *Service) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create profiles temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.profiles); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode profiles: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync profiles: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close profiles temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}

	return nil
}
