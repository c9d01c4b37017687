package usecase

import (
	"context"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
)

type authUsecase struct {
	userRepo domain.UserRepository
}

func NewAuthUsecase(userRepo domain.UserRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: userRepo}
}

// GetCurrentUser returns the local account record. Only the user themselves
// or an admin may read it.
func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	if actorID(ctx) != id && requireAdmin(ctx) != nil {
		return nil, apperror.Forbidden("You can only view your own account")
	}

	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User", id)
	}
	return user, nil
}
