// Package usertest содержит хранилище пользователей в памяти для тестов.
package usertest

import (
	"context"
	"sync"
	"time"

	"wordsync/internal/domain/user"
)

type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]user.User
	nextID int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]user.User), nextID: 1}
}

func (m *MemoryRepository) Create(_ context.Context, login, passwordHash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[login]; ok {
		return 0, user.ErrLoginTaken
	}

	u := user.User{ID: m.nextID, Login: login, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[login] = u
	m.nextID++
	return u.ID, nil
}

func (m *MemoryRepository) FindByLogin(_ context.Context, login string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[login]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
