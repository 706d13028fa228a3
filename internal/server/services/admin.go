package services

import (
	"context"
	"slices"
	"strings"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
)

var knownRoles = []string{common.RoleMember, common.RoleModerator, common.RoleAdmin}

type AdminService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
}

func NewAdminService(tx dbx.Transactor, m repomanager.RepositoryManager) *AdminService {
	return &AdminService{tx: tx, repomanager: m}
}

func (s *AdminService) UsersWithRoles(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.tx.DB()).ListWithRoles(ctx)
}

// EditRoles replaces the roles of username and returns the stored set.
func (s *AdminService) EditRoles(ctx context.Context, username string, roles []string) ([]string, error) {
	var set []string
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !slices.Contains(knownRoles, r) {
			return nil, ErrUnknownRole
		}
		if !slices.Contains(set, r) {
			set = append(set, r)
		}
	}
	if len(set) == 0 {
		return nil, ErrNoRoles
	}
	slices.Sort(set)

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := users.GetUserByLogin(ctx, strings.ToLower(username))
		if err != nil {
			return err
		}
		return users.SetRoles(ctx, user.ID, set)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
