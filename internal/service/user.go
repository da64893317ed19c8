package service

import (
	"context"
	"fmt"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
)

// UserService manages user records and their profiles.
type UserService struct {
	store repo.Store
}

// NewUserService constructs a UserService.
func NewUserService(store repo.Store) *UserService {
	return &UserService{store: store}
}

// Register creates a user together with its profile in one transaction.
// A nil profile creates the default one.
func (s *UserService) Register(ctx context.Context, u domain.User, profile *domain.Profile) (domain.User, domain.Profile, error) {
	if err := u.Validate(); err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	if profile != nil {
		if err := profile.Validate(); err != nil {
			return domain.User{}, domain.Profile{}, fmt.Errorf("service.UserService.Register: %w", err)
		}
	}

	var (
		created domain.User
		prof    domain.Profile
	)
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		created, err = tx.Users().Create(ctx, u)
		if err != nil {
			return err
		}
		p := domain.DefaultProfile(created.ID)
		if profile != nil {
			p = *profile
			p.UserID = created.ID
		}
		prof, err = tx.Users().CreateProfile(ctx, p)
		return err
	})
	if err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	return created, prof, nil
}

// Me returns the caller's own user record and profile.
func (s *UserService) Me(ctx context.Context, caller domain.Caller) (domain.User, domain.Profile, error) {
	u, err := s.store.Users().GetByID(ctx, caller.UserID)
	if err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	p, err := s.store.Users().GetProfile(ctx, caller.UserID)
	if err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	return u, p, nil
}
