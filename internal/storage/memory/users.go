package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nomnom/internal/storage"
)

// UsersMemoryStorage — in-memory реализация UsersStorage
type UsersMemoryStorage struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]storage.User
	byEmail map[string]int64
}

// NewUsersMemoryStorage создаёт новый UsersMemoryStorage
func NewUsersMemoryStorage() *UsersMemoryStorage {
	return &UsersMemoryStorage{
		nextID:  1,
		users:   make(map[int64]storage.User),
		byEmail: make(map[string]int64),
	}
}

func (s *UsersMemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := s.byEmail[key]; ok {
		return storage.ErrEmailTaken
	}

	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	if user.Role == "" {
		user.Role = "user"
	}

	s.users[user.ID] = *user
	s.byEmail[key] = user.ID

	return nil
}

func (s *UsersMemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	u := s.users[id]
	return &u, nil
}

func (s *UsersMemoryStorage) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &u, nil
}
