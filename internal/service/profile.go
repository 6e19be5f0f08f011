package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/authportal/internal/apperr"
	"github.com/geocoder89/authportal/internal/domain/user"
)

const (
	MsgUserNotFound = "User not found"

	msgFetchProfileFailed  = "Error fetching profile"
	msgUpdateProfileFailed = "Error updating profile"
)

type ProfileService struct {
	users Users
	log   *slog.Logger
}

func NewProfileService(users Users, log *slog.Logger) *ProfileService {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileService{users: users, log: log}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (user.View, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, apperr.NotFound(MsgUserNotFound)
		}
		s.log.ErrorContext(ctx, "get profile failed", "err", err)
		return user.View{}, apperr.Internal(msgFetchProfileFailed, err)
	}
	return u.View(), nil
}

// UpdateProfile merges in over the stored profile. Concurrent updates are
// last-write-wins.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, in user.ProfileInput) (user.View, error) {
	if err := validate.Struct(in); err != nil {
		if fe, ok := firstFailure(err); ok {
			return user.View{}, apperr.Validation(fieldMessage(fe))
		}
		return user.View{}, apperr.Validation("Invalid profile")
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, apperr.NotFound(MsgUserNotFound)
		}
		s.log.ErrorContext(ctx, "load profile for update failed", "err", err)
		return user.View{}, apperr.Internal(msgUpdateProfileFailed, err)
	}

	next, err := in.Apply(current)
	if err != nil {
		return user.View{}, err
	}

	saved, err := s.users.UpdateProfile(ctx, id, next.FullName, next.Profile)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, apperr.NotFound(MsgUserNotFound)
		}
		s.log.ErrorContext(ctx, "update profile failed", "err", err)
		return user.View{}, apperr.Internal(msgUpdateProfileFailed, err)
	}

	s.log.InfoContext(ctx, "profile updated")
	return saved.View(), nil
}
