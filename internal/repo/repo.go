// Package repo selects the credential store backend from DATABASE_URL.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/geocoder89/authportal/internal/observability"
	"github.com/geocoder89/authportal/internal/repo/memory"
	"github.com/geocoder89/authportal/internal/repo/mongo"
	"github.com/geocoder89/authportal/internal/repo/postgres"
)

// Users is the credential store. Implementations must reject a second user
// with the same normalized email atomically, returning user.ErrEmailTaken.
type Users interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	// TouchLastLogin moves lastLogin forward to at; it never moves it back.
	TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error)
	UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Users = (*memory.UsersRepo)(nil)
	_ Users = (*mongo.UsersRepo)(nil)
	_ Users = (*postgres.UsersRepo)(nil)
)

// Open connects to the backend named by the scheme of dbURL:
// mongodb / mongodb+srv, postgres / postgresql, or memory.
func Open(ctx context.Context, dbURL string, prom *observability.Prom) (Users, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return mongo.Open(ctx, dbURL, prom)
	case "postgres", "postgresql":
		return postgres.Open(ctx, dbURL, prom)
	case "memory":
		return memory.NewUsersRepo(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}
