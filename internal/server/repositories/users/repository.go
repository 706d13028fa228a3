package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type Repository interface {
	// Create inserts the user and returns it with ID and timestamps set.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// LockForUpdate takes a row lock on the user for the rest of the transaction.
	LockForUpdate(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error
	ListMembers(ctx context.Context, f models.MemberFilter) (*models.Page[*models.User], error)

	GetRoles(ctx context.Context, userID string) ([]string, error)
	SetRoles(ctx context.Context, userID string, roles []string) error
	ListWithRoles(ctx context.Context) ([]*models.User, error)
}
