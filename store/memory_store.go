package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/sessionauth/models"
)

// MemoryStore keeps users in a map. It is used by tests and local runs
// without a database.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

func (s *MemoryStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, ErrDuplicate
		}
	}

	created := *u
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.users[created.ID] = &created

	out := created
	return &out, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) FindPublicByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (s *MemoryStore) FindByUsernameOrEmail(_ context.Context, identifier string) (*models.User, error) {
	username, email := normalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetRefreshToken(_ context.Context, id, token string) error {
	return s.update(id, func(u *models.User) { u.RefreshToken = token })
}

func (s *MemoryStore) SwapRefreshToken(_ context.Context, id, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, ErrNotFound
	}
	if current == "" || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) ClearRefreshToken(_ context.Context, id string) error {
	return s.update(id, func(u *models.User) { u.RefreshToken = "" })
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.update(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.RefreshToken = ""
	})
}

func (s *MemoryStore) update(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}
