package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"reelstream/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrEmailRequired      = errors.New("a valid email is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrEmailInUse         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
)

const minPasswordLength = 8

// Service manages registered accounts and their credentials.
type Service struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]models.Account // keyed by account id
}

// NewService creates an accounts service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "accounts.json"),
		accounts: make(map[string]models.Account),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Register creates a new account. The email is case-insensitive and must
// not already be taken.
func (s *Service) Register(email, plainPassword string) (models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.Account{}, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Account{}, ErrEmailRequired
	}
	if len(plainPassword) < minPasswordLength {
		return models.Account{}, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.findByEmailLocked(email); taken {
		return models.Account{}, ErrEmailInUse
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	s.accounts[account.ID] = account

	if err := s.saveLocked(); err != nil {
		return models.Account{}, err
	}

	return account.Public(), nil
}

// Authenticate checks the email and password pair and returns the matching
// account. The same error covers an unknown email and a wrong password.
func (s *Service) Authenticate(email, plainPassword string) (models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	account, found := s.findByEmailLocked(email)
	s.mu.RUnlock()

	if !found {
		return models.Account{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(plainPassword)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}

	return account.Public(), nil
}

// Get returns the account with the given id.
func (s *Service) Get(id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}

	return account.Public(), nil
}

// Count returns the number of registered accounts.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// SeedAdmin creates the admin account when no accounts exist yet. It
// returns true when the account was created on this call.
func (s *Service) SeedAdmin(email, plainPassword string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, ErrEmailRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts) > 0 {
		return false, nil
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	s.accounts[account.ID] = account

	if err := s.saveLocked(); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) findByEmailLocked(email string) (models.Account, bool) {
	for _, account := range s.accounts {
		if account.Email == email {
			return account, true
		}
	}
	return models.Account{}, false
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.accounts = make(map[string]models.Account)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read accounts: %w", err)
	}
	if len(data) == 0 {
		s.accounts = make(map[string]models.Account)
		return nil
	}

	var list []models.Account
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.Account, len(list))
	for _, account := range list {
		if strings.TrimSpace(account.ID) == "" {
			continue
		}
		account.Email = strings.ToLower(strings.TrimSpace(account.Email))
		s.accounts[account.ID] = account
	}

	return nil
}

func (s *Service) saveLocked() error {
	list := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		list = append(list, account)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	return nil
}
