// Package repotest holds behaviour checks shared by every repo.Users backend.
package repotest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store is the subset of repo.Users the contract exercises. It is declared
// here so backend packages can run the suite without importing repo.
type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error)
	UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error)
	Ping(ctx context.Context) error
}

// RunUsersContract runs the suite against stores built by newStore. Each
// subtest gets a fresh store, and emails are made unique per call so shared
// databases do not collide.
func RunUsersContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		s := newStore(t)
		email := uniqueEmail("Ada")

		created, err := s.Create(ctx, user.User{FullName: "Ada Lovelace", Email: email, PasswordHash: "hash"})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, user.NormalizeEmail(email), created.Email)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Nil(t, created.LastLogin)

		byEmail, err := s.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", byID.FullName)
		assert.WithinDuration(t, created.CreatedAt, byID.CreatedAt, time.Millisecond)
	})

	t.Run("email lookup ignores case and spaces", func(t *testing.T) {
		s := newStore(t)
		email := uniqueEmail("case")

		created, err := s.Create(ctx, user.User{FullName: "Case", Email: email, PasswordHash: "h"})
		require.NoError(t, err)

		got, err := s.GetByEmail(ctx, "  "+strings.ToUpper(email)+" ")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		email := uniqueEmail("dup")

		_, err := s.Create(ctx, user.User{FullName: "First", Email: email, PasswordHash: "h"})
		require.NoError(t, err)

		_, err = s.Create(ctx, user.User{FullName: "Second", Email: strings.ToUpper(email), PasswordHash: "h"})
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("concurrent sign-ups for one email", func(t *testing.T) {
		s := newStore(t)
		email := uniqueEmail("race")

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Create(ctx, user.User{FullName: "Racer", Email: email, PasswordHash: "h"})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, user.ErrEmailTaken):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("unknown ids", func(t *testing.T) {
		s := newStore(t)

		for _, id := range []string{"", "not-an-id", uuid.NewString(), "65a1b2c3d4e5f60718293a4b"} {
			_, err := s.GetByID(ctx, id)
			assert.ErrorIs(t, err, user.ErrNotFound, "GetByID(%q)", id)

			_, err = s.TouchLastLogin(ctx, id, time.Now())
			assert.ErrorIs(t, err, user.ErrNotFound, "TouchLastLogin(%q)", id)

			_, err = s.UpdateProfile(ctx, id, "x", user.Profile{})
			assert.ErrorIs(t, err, user.ErrNotFound, "UpdateProfile(%q)", id)
		}

		_, err := s.GetByEmail(ctx, uniqueEmail("ghost"))
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("last login only moves forward", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, user.User{FullName: "Clock", Email: uniqueEmail("clock"), PasswordHash: "h"})
		require.NoError(t, err)

		later := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		earlier := later.Add(-time.Hour)

		got, err := s.TouchLastLogin(ctx, created.ID, later)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin)
		assert.True(t, got.LastLogin.Equal(later))

		got, err = s.TouchLastLogin(ctx, created.ID, earlier)
		require.NoError(t, err)
		assert.True(t, got.LastLogin.Equal(later), "lastLogin moved back to %v", got.LastLogin)
	})

	t.Run("update profile replaces attributes", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, user.User{FullName: "Before", Email: uniqueEmail("prof"), PasswordHash: "keep"})
		require.NoError(t, err)

		age := 30
		dob := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
		p := user.Profile{
			Age:         &age,
			DateOfBirth: &dob,
			Gender:      "female",
			Hobbies:     []string{"chess", "climbing"},
			UserMobile:  "+15550100",
			Description: "hello",
		}

		got, err := s.UpdateProfile(ctx, created.ID, "After", p)
		require.NoError(t, err)
		assert.Equal(t, "After", got.FullName)
		require.NotNil(t, got.Profile.Age)
		assert.Equal(t, 30, *got.Profile.Age)
		require.NotNil(t, got.Profile.DateOfBirth)
		assert.True(t, got.Profile.DateOfBirth.Equal(dob))
		assert.Equal(t, []string{"chess", "climbing"}, got.Profile.Hobbies)
		assert.Equal(t, "keep", got.PasswordHash)
		assert.Equal(t, created.Email, got.Email)

		cleared, err := s.UpdateProfile(ctx, created.ID, "After", user.Profile{Gender: "female"})
		require.NoError(t, err)
		assert.Nil(t, cleared.Profile.Age)
		assert.Nil(t, cleared.Profile.DateOfBirth)
		assert.Empty(t, cleared.Profile.Hobbies)
		assert.Empty(t, cleared.Profile.Description)
		assert.Equal(t, "female", cleared.Profile.Gender)

		reread, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, cleared.Profile, reread.Profile)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(ctx))
	})
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8] + "@Example.com"
}
