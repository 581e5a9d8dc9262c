package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

// MemoryUserRepo is a process-local UserRepo for development and tests.
// It is safe for concurrent use but not shared across instances.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
}

var _ UserRepo = (*MemoryUserRepo)(nil)

// NewMemoryUserRepo creates an empty in-memory user directory
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) Create(_ context.Context, nu model.NewUser) (model.User, error) {
	email := NormalizeEmail(nu.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return model.User{}, ErrEmailTaken
	}
	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: nu.PasswordHash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

func (r *MemoryUserRepo) MarkVerified(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(u *model.User) { u.IsVerified = true })
}

func (r *MemoryUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

// Count returns the number of stored users
func (r *MemoryUserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryUserRepo) update(id uuid.UUID, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.byID[id] = u
	return nil
}
