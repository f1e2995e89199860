package ports

import (
	"context"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, role string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// Logout revokes the presented token until its natural expiry.
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}
