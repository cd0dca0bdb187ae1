package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// Identity is what the identity resolver hands to the core.
type Identity struct {
	ExternalID string
	Email      string
	Name       *string
}

// UserStore is the storage the user directory needs.
type UserStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateProfile(ctx context.Context, user *model.User, email string, name *string, now time.Time) error
}

// UserService maps external identities onto internal users.
type UserService struct {
	repo UserStore
	now  func() time.Time
}

func NewUserService(repo UserStore) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// Resolve returns the user behind the identity, creating it on first sight.
// Creation needs an email; without one an unknown identity is ErrNotFound.
func (s *UserService) Resolve(ctx context.Context, id Identity) (*model.User, error) {
	if strings.TrimSpace(id.ExternalID) == "" {
		return nil, ErrUnauthorized
	}
	user, _, err := s.findOrCreate(ctx, id)
	return user, err
}

// Sync upserts the caller's profile. created reports whether a new row was
// inserted. Email and name are only written when they differ.
func (s *UserService) Sync(ctx context.Context, id Identity) (*model.User, bool, error) {
	if strings.TrimSpace(id.ExternalID) == "" {
		return nil, false, ErrUnauthorized
	}
	verr := &ValidationError{}
	if strings.TrimSpace(id.Email) == "" {
		verr.Add("email", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}
	id.Name = normalizeName(id.Name)

	user, created, err := s.findOrCreate(ctx, id)
	if err != nil || created {
		return user, created, err
	}

	if user.Email == id.Email && equalName(user.Name, id.Name) {
		return user, false, nil
	}
	if err := s.repo.UpdateProfile(ctx, user, id.Email, id.Name, s.now()); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

func (s *UserService) findOrCreate(ctx context.Context, id Identity) (*model.User, bool, error) {
	user, err := s.repo.FindByExternalID(ctx, id.ExternalID)
	switch {
	case err == nil:
		return user, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	if strings.TrimSpace(id.Email) == "" {
		return nil, false, ErrNotFound
	}

	now := s.now()
	user = &model.User{
		ID:         uuid.NewString(),
		ExternalID: id.ExternalID,
		Email:      id.Email,
		Name:       normalizeName(id.Name),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.repo.Create(ctx, user)
	switch {
	case err == nil:
		return user, true, nil
	case !errors.Is(err, repository.ErrDuplicate):
		return nil, false, err
	}

	// Another request created the same identity first; read its row.
	user, err = s.repo.FindByExternalID(ctx, id.ExternalID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: user %s: %v", ErrConflict, id.ExternalID, err)
	}
	return user, false, nil
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func equalName(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
