// Package storetest provides an in-memory credential store for tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/authgate/apiserver/internal/store"
	"github.com/authgate/apiserver/types"
)

// MemoryUserRepository mirrors store.UserRepository semantics in memory.
// Set Err to make every call fail with it.
type MemoryUserRepository struct {
	mu      sync.Mutex
	users   []types.User
	nextID  int
	Err     error
	Creates int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return types.User{}, &store.ConflictError{Field: "username"}
		}
		if existing.Email == user.Email {
			return types.User{}, &store.ConflictError{Field: "email"}
		}
	}

	token, err := store.NewAccessToken()
	if err != nil {
		return types.User{}, err
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.AccessToken = token
	r.users = append(r.users, user)
	r.Creates++
	return user, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) GetByToken(ctx context.Context, token types.AccessToken) (types.User, error) {
	if token.IsZero() {
		return types.User{}, store.ErrNotFound
	}
	return r.find(func(u types.User) bool { return u.AccessToken == token })
}

// Ready fails with Err when set.
func (r *MemoryUserRepository) Ready(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *MemoryUserRepository) find(match func(types.User) bool) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}
