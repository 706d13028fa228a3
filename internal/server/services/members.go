package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	defaultMinAge   = 18
	defaultMaxAge   = 100
)

// MemberQuery carries the optional listing parameters. Zero values pick the
// defaults.
type MemberQuery struct {
	PageNumber int
	PageSize   int
	Gender     string
	MinAge     int
	MaxAge     int
	OrderBy    string
}

type MemberService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewMemberService(tx dbx.Transactor, m repomanager.RepositoryManager) *MemberService {
	return &MemberService{tx: tx, repomanager: m, now: time.Now}
}

func normalizePage(number, size int) (int, int) {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return number, min(size, maxPageSize)
}

func oppositeGender(g string) string {
	switch g {
	case "male":
		return "female"
	case "female":
		return "male"
	}
	return ""
}

// List returns members other than username. Without an explicit gender the
// caller sees the opposite gender.
func (s *MemberService) List(ctx context.Context, username string, q MemberQuery) (*models.Page[*models.User], error) {
	users := s.repomanager.Users(s.tx.DB())

	current, err := users.GetUserByLogin(ctx, username)
	if err != nil {
		return nil, err
	}

	gender := q.Gender
	if gender == "" {
		gender = oppositeGender(current.Gender)
	}

	minAge, maxAge := q.MinAge, q.MaxAge
	if minAge <= 0 {
		minAge = defaultMinAge
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	if minAge > maxAge {
		return nil, fmt.Errorf("%w: minAge is greater than maxAge", common.ErrorValidation)
	}

	orderBy := q.OrderBy
	if orderBy != "created" {
		orderBy = "lastActive"
	}

	now := s.now()
	number, size := normalizePage(q.PageNumber, q.PageSize)

	return users.ListMembers(ctx, models.MemberFilter{
		CurrentUsername: username,
		Gender:          gender,
		MinDateOfBirth:  now.AddDate(-maxAge-1, 0, 0),
		MaxDateOfBirth:  now.AddDate(-minAge, 0, 0),
		OrderBy:         orderBy,
		PageNumber:      number,
		PageSize:        size,
	})
}

// Get returns the member with photos.
func (s *MemberService) Get(ctx context.Context, username string) (*models.User, error) {
	db := s.tx.DB()

	user, err := s.repomanager.Users(db).GetUserByLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Photos, err = s.repomanager.Photos(db).ListByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	for _, p := range user.Photos {
		if p.IsMain {
			user.MainPhotoURL = p.URL
		}
	}
	return user, nil
}

func (s *MemberService) Update(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	err := s.repomanager.Users(s.tx.DB()).UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return ErrUpdateUser
	}
	return nil
}

// Touch records activity of the user.
func (s *MemberService) Touch(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.tx.DB()).TouchLastActive(ctx, userID, s.now())
}
