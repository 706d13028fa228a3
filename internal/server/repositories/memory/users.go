package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type UsersRepository struct {
	s *Store
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.userByName(user.UserName) != nil {
		return nil, common.ErrorAlreadyExists
	}
	now := time.Now()
	user.ID = newID()
	user.CreatedAt = now
	user.LastActive = now
	c := *user
	r.s.users[user.ID] = &c
	return user, nil
}

func (r *UsersRepository) GetUserByLogin(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.s.userByName(username)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *UsersRepository) LockForUpdate(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *UsersRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Introduction = upd.Introduction
	u.LookingFor = upd.LookingFor
	u.Interests = upd.Interests
	u.City = upd.City
	u.Country = upd.Country
	return nil
}

func (r *UsersRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		u.LastActive = at
	}
	return nil
}

func (r *UsersRepository) ListMembers(ctx context.Context, f models.MemberFilter) (*models.Page[*models.User], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var members []*models.User
	for _, u := range r.s.users {
		if u.UserName == f.CurrentUsername {
			continue
		}
		if f.Gender != "" && u.Gender != f.Gender {
			continue
		}
		if !u.DateOfBirth.IsZero() && (u.DateOfBirth.Before(f.MinDateOfBirth) || u.DateOfBirth.After(f.MaxDateOfBirth)) {
			continue
		}
		c := *u
		c.MainPhotoURL = r.s.mainPhotoURL(u.ID)
		members = append(members, &c)
	}

	sort.Slice(members, func(i, j int) bool {
		if f.OrderBy == "created" {
			return members[i].CreatedAt.After(members[j].CreatedAt)
		}
		return members[i].LastActive.After(members[j].LastActive)
	})

	return paginate(members, f.PageNumber, f.PageSize), nil
}

func (r *UsersRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	roles := append([]string{}, r.s.roles[userID]...)
	sort.Strings(roles)
	return roles, nil
}

func (r *UsersRepository) SetRoles(ctx context.Context, userID string, roles []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.roles[userID] = append([]string{}, roles...)
	return nil
}

func (r *UsersRepository) ListWithRoles(ctx context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		roles := append([]string{}, r.s.roles[u.ID]...)
		sort.Strings(roles)
		out = append(out, &models.User{ID: u.ID, UserName: u.UserName, Roles: roles})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}
