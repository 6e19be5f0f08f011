// Package service holds the sign-up, sign-in, token and profile operations.
// It returns *apperr.Error values and never deals in HTTP.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/authportal/internal/apperr"
	"github.com/geocoder89/authportal/internal/auth"
	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/geocoder89/authportal/internal/observability"
	"github.com/geocoder89/authportal/internal/security"
)

const (
	MsgFillAllFields     = "Please fill in all fields"
	MsgPasswordsMismatch = "Passwords do not match"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgEmailTaken        = "User already exists with this email"
	MsgMissingSignIn     = "Please provide email and password"
	MsgBadCredentials    = "Invalid email or password"
	MsgTokenInvalid      = "Token is not valid"

	msgSignUpFailed = "Server error during signup"
	msgSignInFailed = "Server error during signin"
	msgVerifyFailed = "Server error during verification"

	// a cost-12 bcrypt hash that no password matches, used when the decoy
	// cannot be hashed at the configured cost
	fallbackDecoyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
)

// PasswordHasher hashes and checks passwords. Compare returns
// security.ErrPasswordMismatch on a wrong password.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// Users is the slice of the credential store the services need.
type Users interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error)
	UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error)
}

type SignUpInput struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful sign-up or sign-in hands back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      user.View
}

type AuthService struct {
	users  Users
	hasher PasswordHasher
	tokens *auth.Manager
	prom   *observability.Prom
	log    *slog.Logger
	now    func() time.Time

	// hashed once, compared against when the email is unknown so both
	// sign-in failures cost one bcrypt comparison
	decoyOnce sync.Once
	decoy     string
}

func NewAuthService(users Users, hasher PasswordHasher, tokens *auth.Manager, prom *observability.Prom, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		prom:   prom,
		log:    log,
		now:    time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (sess Session, err error) {
	defer func() { s.observe("signup", err) }()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = user.NormalizeEmail(in.Email)

	if err := validate.Struct(in); err != nil {
		fe, ok := firstFailure(err, "required", "eqfield", "min")
		if !ok {
			return Session{}, apperr.Validation(MsgFillAllFields)
		}
		switch fe.Tag() {
		case "eqfield":
			return Session{}, apperr.Validation(MsgPasswordsMismatch)
		case "min":
			return Session{}, apperr.Validation(MsgPasswordTooShort)
		default:
			return Session{}, apperr.Validation(MsgFillAllFields)
		}
	}

	// the unique index decides races; this only spares a bcrypt round
	_, err = s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return Session{}, apperr.Conflict(MsgEmailTaken)
	case !errors.Is(err, user.ErrNotFound):
		return Session{}, s.internal(ctx, msgSignUpFailed, "signup lookup failed", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, s.internal(ctx, msgSignUpFailed, "password hash failed", err)
	}

	created, err := s.users.Create(ctx, user.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return Session{}, apperr.Conflict(MsgEmailTaken)
		}
		return Session{}, s.internal(ctx, msgSignUpFailed, "create user failed", err)
	}

	return s.session(ctx, created, msgSignUpFailed)
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (sess Session, err error) {
	defer func() { s.observe("signin", err) }()

	in.Email = user.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return Session{}, apperr.Validation(MsgMissingSignIn)
	}

	found, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = s.hasher.Compare(s.decoyHash(ctx), in.Password)
			return Session{}, apperr.Credentials(MsgBadCredentials)
		}
		return Session{}, s.internal(ctx, msgSignInFailed, "signin lookup failed", err)
	}

	if err := s.hasher.Compare(found.PasswordHash, in.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return Session{}, apperr.Credentials(MsgBadCredentials)
		}
		return Session{}, s.internal(ctx, msgSignInFailed, "password compare failed", err)
	}

	touched, err := s.users.TouchLastLogin(ctx, found.ID, s.now().UTC())
	if err != nil {
		return Session{}, s.internal(ctx, msgSignInFailed, "update last login failed", err)
	}

	return s.session(ctx, touched, msgSignInFailed)
}

// Verify resolves a bearer token to the current user record.
func (s *AuthService) Verify(ctx context.Context, token string) (v user.View, err error) {
	defer func() { s.observe("verify", err) }()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return user.View{}, apperr.Unauthorized(MsgTokenInvalid, err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, apperr.Unauthorized(MsgTokenInvalid, err)
		}
		return user.View{}, s.internal(ctx, msgVerifyFailed, "verify lookup failed", err)
	}

	return u.View(), nil
}

func (s *AuthService) session(ctx context.Context, u user.User, failMsg string) (Session, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, s.internal(ctx, failMsg, "issue token failed", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u.View()}, nil
}

func (s *AuthService) decoyHash(ctx context.Context) string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password-never-matches")
		if err != nil {
			s.log.WarnContext(ctx, "decoy hash failed, using fallback", "err", err)
			hash = fallbackDecoyHash
		}
		s.decoy = hash
	})
	return s.decoy
}

func (s *AuthService) internal(ctx context.Context, msg, logMsg string, err error) error {
	s.log.ErrorContext(ctx, logMsg, "err", err)
	return apperr.Internal(msg, err)
}

func (s *AuthService) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = apperr.KindOf(err).String()
	}
	s.prom.ObserveAuth(op, result)
}
