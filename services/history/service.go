package history

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
	ErrDurationInvalid    = errors.New("duration must not be negative")
)

// DefaultRecentLimit caps how many rows ListRecent returns.
const DefaultRecentLimit = 20

// Service manages per-user watch history and playhead positions.
type Service struct {
	mu    sync.RWMutex
	path  string
	items map[string]map[string]models.WatchHistoryItem
}

// NewService creates a history service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "history.json"),
		items: make(map[string]map[string]models.WatchHistoryItem),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Touch records that the user opened a piece of content without moving the
// playhead. A missing row is created; title and poster refresh when supplied.
func (s *Service) Touch(userID string, input models.HistoryUpsert) (models.WatchHistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchHistoryItem{}, ErrUserIDRequired
	}

	ref := input.Ref.Normalise()
	if err := ref.Validate(); err != nil {
		return models.WatchHistoryItem{}, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.WatchHistoryItem{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	perUser := s.ensureUserLocked(userID)

	key := ref.Key()
	item, exists := perUser[key]
	if !exists {
		item = models.WatchHistoryItem{
			ID:        uuid.NewString(),
			Ref:       ref,
			CreatedAt: now,
		}
	}

	if strings.TrimSpace(input.Title) != "" {
		item.Title = input.Title
	}
	if strings.TrimSpace(input.PosterPath) != "" {
		item.PosterPath = input.PosterPath
	}
	item.UpdatedAt = now

	perUser[key] = item

	if err := s.saveLocked(); err != nil {
		return models.WatchHistoryItem{}, err
	}

	return item, nil
}

// ReportProgress reconciles a playhead update against the stored row.
//
// The stored position is the starting point. A relative deltaMs nudges it,
// but an absolute positionMs in the same update wins outright. A delta
// against a row that does not exist yet is dropped rather than applied to
// an imagined zero. The result never goes below zero and never past a
// known duration. A patch with no progress fields still creates the row
// (at position 0) or refreshes updatedAt, and a zero duration keeps
// whatever duration is already stored.
func (s *Service) ReportProgress(userID string, patch models.ProgressPatch) (models.WatchHistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchHistoryItem{}, ErrUserIDRequired
	}

	ref := patch.Ref.Normalise()
	if err := ref.Validate(); err != nil {
		return models.WatchHistoryItem{}, err
	}
	if patch.DurationMs != nil && *patch.DurationMs < 0 {
		return models.WatchHistoryItem{}, ErrDurationInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	perUser := s.ensureUserLocked(userID)

	key := ref.Key()
	item, exists := perUser[key]
	if !exists {
		item = models.WatchHistoryItem{
			ID:        uuid.NewString(),
			Ref:       ref,
			CreatedAt: now,
		}
	}

	next := item.PositionMs
	if patch.DeltaMs != nil && exists {
		next += *patch.DeltaMs
	}
	if patch.PositionMs != nil {
		next = *patch.PositionMs
	}
	if next < 0 {
		next = 0
	}

	if patch.DurationMs != nil && *patch.DurationMs > 0 {
		item.DurationMs = *patch.DurationMs
	}
	if item.DurationMs > 0 && next > item.DurationMs {
		next = item.DurationMs
	}

	item.PositionMs = next
	if strings.TrimSpace(patch.Title) != "" {
		item.Title = patch.Title
	}
	if strings.TrimSpace(patch.PosterPath) != "" {
		item.PosterPath = patch.PosterPath
	}
	item.UpdatedAt = now

	perUser[key] = item

	if err := s.saveLocked(); err != nil {
		return models.WatchHistoryItem{}, err
	}

	return item, nil
}

// Get returns the history row for the given content, or nil when the user
// has never opened it.
func (s *Service) Get(userID string, ref models.ContentRef) (*models.WatchHistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	ref = ref.Normalise()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	perUser, ok := s.items[userID]
	if !ok {
		return nil, nil
	}

	item, exists := perUser[ref.Key()]
	if !exists {
		return nil, nil
	}

	found := item
	return &found, nil
}

// ListRecent returns the most recently touched rows, newest first, capped
// at DefaultRecentLimit.
func (s *Service) ListRecent(userID string) ([]models.WatchHistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.WatchHistoryItem, 0)
	if perUser, ok := s.items[userID]; ok {
		items = make([]models.WatchHistoryItem, 0, len(perUser))
		for _, item := range perUser {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].Ref.Key() < items[j].Ref.Key()
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})

	if len(items) > DefaultRecentLimit {
		items = items[:DefaultRecentLimit]
	}

	return items, nil
}

// Remove deletes a history row. Removing an absent row is not an error.
func (s *Service) Remove(userID string, ref models.ContentRef) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}

	ref = ref.Normalise()
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
		s.items = make(map[string]map[string]models.WatchHistoryItem)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		s.items = make(map[string]map[string]models.WatchHistoryItem)
		return nil
	}

	var byUser map[string][]models.WatchHistoryItem
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}

	s.items = make(map[string]map[string]models.WatchHistoryItem, len(byUser))
	for userID, items := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		perUser := make(map[string]models.WatchHistoryItem, len(items))
		for _, item := range items {
			normalised := normaliseItem(item)
			perUser[normalised.Ref.Key()] = normalised
		}
		s.items[userID] = perUser
	}

	return nil
}

func (s *Service) saveLocked() error {
	byUser := make(map[string][]models.WatchHistoryItem, len(s.items))
	for userID, collection := range s.items {
		items := make([]models.WatchHistoryItem, 0, len(collection))
		for _, item := range collection {
			items = append(items, item)
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
				return items[i].Ref.Key() < items[j].Ref.Key()
			}
			return items[i].UpdatedAt.Before(items[j].UpdatedAt)
		})

		byUser[userID] = items
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byUser); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode history: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync history: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close history temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	return nil
}

func (s *Service) ensureUserLocked(userID string) map[string]models.WatchHistoryItem {
	perUser, ok := s.items[userID]
	if !ok {
		perUser = make(map[string]models.WatchHistoryItem)
		s.items[userID] = perUser
	}
	return perUser
}

func normaliseItem(item models.WatchHistoryItem) models.WatchHistoryItem {
	item.Ref = item.Ref.Normalise()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.PositionMs < 0 {
		item.PositionMs = 0
	}
	return item
}
