package sessions

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

	"github.com/google/uuid"

	"reelstream/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

// DefaultTTL is how long a session lives when the config does not say otherwise.
const DefaultTTL = 30 * 24 * time.Hour

// Service issues and resolves opaque bearer tokens.
type Service struct {
	mu       sync.RWMutex
	path     string
	ttl      time.Duration
	sessions map[string]models.Session // keyed by token
}

// NewService creates a sessions service storing data inside the provided
// directory. A non-positive ttl falls back to DefaultTTL.
func NewService(storageDir string, ttl time.Duration) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "sessions.json"),
		ttl:      ttl,
		sessions: make(map[string]models.Session),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Create issues a fresh token for the given user.
func (s *Service) Create(userID string) (models.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Session{}, ErrUserIDRequired
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = session

	if err := s.saveLocked(); err != nil {
		return models.Session{}, err
	}

	return session, nil
}

// Resolve maps a token to its user. Expired tokens are removed on sight.
func (s *Service) Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}

	if session.Expired(time.Now().UTC()) {
		delete(s.sessions, token)
		if err := s.saveLocked(); err != nil {
			return "", err
		}
		return "", ErrSessionNotFound
	}

	return session.UserID, nil
}

// Revoke drops a session. Revoking an unknown token is not an error.
func (s *Service) Revoke(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return nil
	}

	delete(s.sessions, token)

	return s.saveLocked()
}

// Prune removes every expired session and reports how many were dropped.
func (s *Service) Prune() (int, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			dropped++
		}
	}

	if dropped == 0 {
		return 0, nil
	}

	if err := s.saveLocked(); err != nil {
		return 0, err
	}

	return dropped, nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.sessions = make(map[string]models.Session)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read sessions: %w", err)
	}
	if len(data) == 0 {
		s.sessions = make(map[string]models.Session)
		return nil
	}

	var list []models.Session
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}

	now := time.Now().UTC()
	s.sessions = make(map[string]models.Session, len(list))
	for _, session := range list {
		if strings.TrimSpace(session.Token) == "" || session.Expired(now) {
			continue
		}
		s.sessions[session.Token] = session
	}

	return nil
}

func (s *Service) saveLocked() error {
	list := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session)
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create sessions temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode sessions: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync sessions: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close sessions temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}

	return nil
}
