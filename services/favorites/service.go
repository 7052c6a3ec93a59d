package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelstream/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrTitleRequired      = errors.New("title is required")
)

// Service manages persistence and retrieval of user favorites.
type Service struct {
	mu    sync.RWMutex
	path  string
	items map[string]map[string]models.Favorite
}

// NewService creates a favorites service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create favorites dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "favorites.json"),
		items: make(map[string]map[string]models.Favorite),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns all favorites sorted by most recent additions first.
func (s *Service) List(userID string) ([]models.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Favorite, 0)
	if perUser, ok := s.items[userID]; ok {
		items = make([]models.Favorite, 0, len(perUser))
		for _, item := range perUser {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Key() < items[j].Key()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// Exists reports whether the given content is on the user's favorites
// list. An anonymous caller has no list, so the answer is false rather
// than an error.
func (s *Service) Exists(userID string, tmdbID int64, mediaType string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	ref := models.ContentRef{TmdbID: tmdbID, MediaType: mediaType}.Normalise()
	if err := ref.Validate(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	perUser, ok := s.items[userID]
	if !ok {
		return false, nil
	}

	_, exists := perUser[ref.Key()]
	return exists, nil
}

// Add inserts a new favorite or refreshes metadata for an existing one.
// The original creation time survives a refresh.
func (s *Service) Add(userID string, input models.FavoriteUpsert) (models.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Favorite{}, ErrUserIDRequired
	}

	ref := models.ContentRef{TmdbID: input.TmdbID, MediaType: input.MediaType}.Normalise()
	if err := ref.Validate(); err != nil {
		return models.Favorite{}, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.Favorite{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.ensureUserLocked(userID)

	key := ref.Key()
	item, exists := perUser[key]

	if !exists {
		item = models.Favorite{
			ID:        uuid.NewString(),
			TmdbID:    ref.TmdbID,
			MediaType: ref.MediaType,
			CreatedAt: time.Now().UTC(),
		}
	}

	item.Title = input.Title
	if strings.TrimSpace(input.PosterPath) != "" {
		item.PosterPath = input.PosterPath
	}

	perUser[key] = item

	if err := s.saveLocked(); err != nil {
		return models.Favorite{}, err
	}

	return item, nil
}

// Remove deletes a favorite. Removing an absent entry is not an error.
func (s *Service) Remove(userID string, tmdbID int64, mediaType string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}

	ref := models.ContentRef{TmdbID: tmdbID, MediaType: mediaType}.Normalise()
	if err := ref.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.ensureUserLocked(userID)

	key := ref.Key()
	if _, exists := perUser[key]; !exists {
		return false, nil
	}

	delete(perUser, key)

	if err := s.saveLocked(); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.items = make(map[string]map[string]models.Favorite)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open favorites: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read favorites: %w", err)
	}
	if len(data) == 0 {
		s.items = make(map[string]map[string]models.Favorite)
		return nil
	}

	var byUser map[string][]models.Favorite
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode favorites: %w", err)
	}

	s.items = make(map[string]map[string]models.Favorite, len(byUser))
	for userID, items := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		perUser := make(map[string]models.Favorite, len(items))
		for _, item := range items {
			normalised := normaliseItem(item)
			perUser[normalised.Key()] = normalised
		}
		s.items[userID] = perUser
	}

	return nil
}

func (s *Service) saveLocked() error {
	byUser := make(map[string][]models.Favorite, len(s.items))
	for userID, collection := range s.items {
		items := make([]models.Favorite, 0, len(collection))
		for _, item := range collection {
			items = append(items, item)
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].Key() < items[j].Key()
			}
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})

		byUser[userID] = items
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create favorites temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byUser); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode favorites: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync favorites: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close favorites temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace favorites file: %w", err)
	}

	return nil
}

func (s *Service) ensureUserLocked(userID string) map[string]models.Favorite {
	perUser, ok := s.items[userID]
	if !ok {
		perUser = make(map[string]models.Favorite)
		s.items[userID] = perUser
	}
	return perUser
}

func normaliseItem(item models.Favorite) models.Favorite {
	item.MediaType = strings.ToLower(strings.TrimSpace(item.MediaType))
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	return item
}
