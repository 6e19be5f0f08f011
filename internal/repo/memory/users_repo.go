package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in process memory. The email index is updated under
// the same lock as the records, so uniqueness holds under concurrent Create.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // id -> user
	byEmail map[string]string    // normalized email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	u.ID = uuid.NewString()
	u.Email = user.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = copyUser(u)
	r.byEmail[u.Email] = u.ID

	return copyUser(u), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return copyUser(r.items[id]), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return copyUser(u), nil
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	at = at.UTC()
	if u.LastLogin == nil || at.After(*u.LastLogin) {
		u.LastLogin = &at
	}
	r.items[id] = u

	return copyUser(u), nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.FullName = fullName
	u.Profile = p
	r.items[id] = copyUser(u)

	return copyUser(u), nil
}

// Delete removes a user. There is no API route for it; tests use it to
// simulate an account that disappears while a token is still valid.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.items, id)
	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *UsersRepo) Close(ctx context.Context) error {
	return nil
}

// copyUser detaches the pointer and slice fields so callers cannot mutate
// stored state.
func copyUser(u user.User) user.User {
	v := u.View()
	out := u
	out.Profile = v.Profile
	if u.LastLogin != nil {
		t := *u.LastLogin
		out.LastLogin = &t
	}
	return out
}
