package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, known_as, gender, date_of_birth, city, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, last_active`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.PasswordHash, user.KnownAs, user.Gender, nullDate(user.DateOfBirth), user.City, user.Country,
	).Scan(&user.ID, &user.CreatedAt, &user.LastActive)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, username, password_hash, known_as, gender, date_of_birth, city, country,
		introduction, looking_for, interests, created_at, last_active
	 FROM users`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var dob sql.NullTime
	err := row.Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.KnownAs, &u.Gender, &dob, &u.City, &u.Country,
		&u.Introduction, &u.LookingFor, &u.Interests, &u.CreatedAt, &u.LastActive)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		u.DateOfBirth = dob.Time
	}
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	query :=
		`UPDATE users SET introduction = $2, looking_for = $3, interests = $4, city = $5, country = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, upd.Introduction, upd.LookingFor, upd.Interests, upd.City, upd.Country)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListMembers returns one page of members other than the caller, filtered by
// gender (when set) and date of birth range, ordered by last activity or
// creation time.
func (r *PostgresRepository) ListMembers(ctx context.Context, f models.MemberFilter) (*models.Page[*models.User], error) {
	where :=
		` WHERE u.username <> $1
		   AND ($2 = '' OR u.gender = $2)
		   AND (u.date_of_birth IS NULL OR u.date_of_birth BETWEEN $3 AND $4)`
	args := []any{f.CurrentUsername, f.Gender, f.MinDateOfBirth, f.MaxDateOfBirth}

	page := &models.Page[*models.User]{CurrentPage: f.PageNumber, PageSize: f.PageSize}

	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users u`+where, args...).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	order := "u.last_active DESC"
	if f.OrderBy == "created" {
		order = "u.created_at DESC"
	}

	query := `SELECT u.id, u.username, u.known_as, u.gender, u.date_of_birth, u.city, u.country,
			u.introduction, u.looking_for, u.interests, u.created_at, u.last_active, COALESCE(p.url, '')
		 FROM users u
		 LEFT JOIN photos p ON p.user_id = u.id AND p.is_main` +
		where + `
		 ORDER BY ` + order + `
		 LIMIT $5 OFFSET $6`

	rows, err := r.db.QueryContext(ctx, query, append(args, f.PageSize, (f.PageNumber-1)*f.PageSize)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u := &models.User{}
		var dob sql.NullTime
		if err := rows.Scan(&u.ID, &u.UserName, &u.KnownAs, &u.Gender, &dob, &u.City, &u.Country,
			&u.Introduction, &u.LookingFor, &u.Interests, &u.CreatedAt, &u.LastActive, &u.MainPhotoURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if dob.Valid {
			u.DateOfBirth = dob.Time
		}
		page.Items = append(page.Items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return page, nil
}

func (r *PostgresRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

// SetRoles replaces the user's roles. Run it inside a transaction.
func (r *PostgresRepository) SetRoles(ctx context.Context, userID string, roles []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) ListWithRoles(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, COALESCE(ur.role, '')
		 FROM users u
		 LEFT JOIN user_roles ur ON ur.user_id = u.id
		 ORDER BY u.username, ur.role`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var (
		users []*models.User
		last  *models.User
	)
	for rows.Next() {
		var id, username, role string
		if err := rows.Scan(&id, &username, &role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if last == nil || last.ID != id {
			last = &models.User{ID: id, UserName: username, Roles: []string{}}
			users = append(users, last)
		}
		if role != "" {
			last.Roles = append(last.Roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}
