package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

// MemoryUserRepo keeps accounts in process memory.  It backs the memory
// store driver and handler tests.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]model.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[uint64]model.User{}}
}

func (r *MemoryUserRepo) Create(_ context.Context, username, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(0, username, email) {
		return 0, ErrEmailExists
	}
	r.nextID++
	now := time.Now().UTC()
	r.byID[r.nextID] = model.User{
		ID: r.nextID, Username: username, Email: email, PasswordHash: hash,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	return r.nextID, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile mirrors UserRepo.UpdateProfile; an empty passwordHash
// keeps the current password.
func (r *MemoryUserRepo) UpdateProfile(_ context.Context, id uint64, username, email, passwordHash string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	if r.takenLocked(id, username, email) {
		return model.User{}, ErrEmailExists
	}
	u.Username, u.Email, u.UpdatedAt = username, email, time.Now().UTC()
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	r.byID[id] = u
	return u, nil
}

func (r *MemoryUserRepo) takenLocked(self uint64, username, email string) bool {
	for id, u := range r.byID {
		if id != self && (u.Email == email || u.Username == username) {
			return true
		}
	}
	return false
}

// MemoryTokenRepo keeps refresh token hashes in process memory.
type MemoryTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
	now    func() time.Time
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{
		tokens: map[string]model.RefreshToken{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryTokenRepo) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: r.now()}
	return nil
}

func (r *MemoryTokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || r.now().After(t.ExpiresAt) {
		return 0, ErrRefreshInvalid
	}
	return t.UserID, nil
}

func (r *MemoryTokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := r.now()
		t.RevokedAt = &now
		r.tokens[tokenHash] = t
	}
	return nil
}

func (r *MemoryTokenRepo) RevokeAllForUser(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for h, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.tokens[h] = t
		}
	}
	return nil
}

func (r *MemoryTokenRepo) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, t := range r.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}
