package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/authportal/internal/db"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/geocoder89/authportal/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, full_name, email, password_hash, age, dob, gender, hobbies,
	mother_name, father_name, user_mobile, parent_mobile, description, created_at, last_login`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

// Open connects, applies migrations and returns a ready repo.
func Open(ctx context.Context, dbURL string, prom *observability.Prom) (*UsersRepo, error) {
	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewUsersRepo(pool, prom), nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.ID = uuid.NewString()
	u.Email = user.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	var out user.User

	err := r.prom.ObserveDB("users.create", func() error {
		row := r.pool.QueryRow(ctx,
			`INSERT INTO users (id, full_name, email, password_hash, age, dob, gender, hobbies,
				mother_name, father_name, user_mobile, parent_mobile, description, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			RETURNING `+userColumns,
			u.ID, u.FullName, u.Email, u.PasswordHash,
			u.Profile.Age, u.Profile.DateOfBirth, u.Profile.Gender, hobbiesOrEmpty(u.Profile.Hobbies),
			u.Profile.MotherName, u.Profile.FatherName, u.Profile.UserMobile, u.Profile.ParentMobile,
			u.Profile.Description, u.CreatedAt,
		)

		var err error
		out, err = scanUser(row)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.ErrEmailTaken
		}
		return err
	})

	return out, err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var out user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			user.NormalizeEmail(email),
		))
		return err
	})

	return out, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var out user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return err
	})

	return out, err
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var out user.User

	err := r.prom.ObserveDB("users.touch_last_login", func() error {
		var err error
		// GREATEST ignores NULL, so the first login sets the value
		out, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET last_login = GREATEST(last_login, $2)
			WHERE id = $1
			RETURNING `+userColumns,
			id, at.UTC(),
		))
		return err
	})

	return out, err
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var out user.User

	err := r.prom.ObserveDB("users.update_profile", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
				SET full_name = $2,
					age = $3,
					dob = $4,
					gender = $5,
					hobbies = $6,
					mother_name = $7,
					father_name = $8,
					user_mobile = $9,
					parent_mobile = $10,
					description = $11
			WHERE id = $1
			RETURNING `+userColumns,
			id, fullName, p.Age, p.DateOfBirth, p.Gender, hobbiesOrEmpty(p.Hobbies),
			p.MotherName, p.FatherName, p.UserMobile, p.ParentMobile, p.Description,
		))
		return err
	})

	return out, err
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UsersRepo) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var hobbies []string

	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.Profile.Age,
		&u.Profile.DateOfBirth,
		&u.Profile.Gender,
		&hobbies,
		&u.Profile.MotherName,
		&u.Profile.FatherName,
		&u.Profile.UserMobile,
		&u.Profile.ParentMobile,
		&u.Profile.Description,
		&u.CreatedAt,
		&u.LastLogin,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	if len(hobbies) > 0 {
		u.Profile.Hobbies = hobbies
	}
	u.CreatedAt = u.CreatedAt.UTC()
	if u.LastLogin != nil {
		t := u.LastLogin.UTC()
		u.LastLogin = &t
	}

	return u, nil
}

func hobbiesOrEmpty(h []string) []string {
	if h == nil {
		return []string{}
	}
	return h
}
