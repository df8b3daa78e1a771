package service

import (
	"context"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentityService resolves the caller of a request from storage, so role and
// tenant changes apply without a new login.
type IdentityService interface {
	Resolve(ctx context.Context, profileID primitive.ObjectID) (domain.Principal, *domain.Profile, error)
}

type identityService struct {
	profiles repository.ProfileRepository
}

func NewIdentityService(profiles repository.ProfileRepository) IdentityService {
	return &identityService{profiles: profiles}
}

// Resolve fails with ErrAuthenticationFailed for unknown profiles and
// ErrProfileInactive for deactivated ones.
func (s *identityService) Resolve(ctx context.Context, profileID primitive.ObjectID) (domain.Principal, *domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return domain.Principal{}, nil, notFoundOr(ctx, "resolve principal", err, ErrAuthenticationFailed)
	}
	if !profile.IsActive {
		return domain.Principal{}, nil, ErrProfileInactive
	}
	return domain.PrincipalOf(profile), profile, nil
}
