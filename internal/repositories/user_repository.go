package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"yamdb/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// DuplicateError reports which unique field a write collided on.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	// Update bumps confirmation_seq when username or email changes, so codes
	// issued for the old address stop working.
	Update(ctx context.Context, user *models.User) error
	DeleteByUsername(ctx context.Context, username string) error

	// RotateConfirmation bumps confirmation_seq and returns the new state.
	RotateConfirmation(ctx context.Context, id int64) (*models.User, error)
	// MarkActivated sets is_active and last_login only if the row still has the
	// confirmation_seq and last_login of user; otherwise it returns ErrNotFound.
	MarkActivated(ctx context.Context, user *models.User, at time.Time) (*models.User, error)
}

type userRepository struct {
	DB DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, username, email, first_name, last_name, bio, role,
	is_superuser, is_active, confirmation_seq, last_login, date_joined, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		role      string
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio, &role,
		&u.IsSuperuser, &u.IsActive, &u.ConfirmationSeq, &lastLogin, &u.DateJoined, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// translate maps driver errors onto the package sentinels.
func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &DuplicateError{Field: fieldFromConstraint(pqErr.Constraint)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fieldFromConstraint(constraint string) string {
	switch {
	case strings.Contains(constraint, "username"):
		return "username"
	case strings.Contains(constraint, "email"):
		return "email"
	}
	return constraint
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, confirmation_seq, date_joined, updated_at
	`
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	err := r.DB.QueryRowContext(ctx, q,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		user.IsSuperuser,
		user.IsActive,
	).Scan(&user.ID, &user.ConfirmationSeq, &user.DateJoined, &user.UpdatedAt)
	if err != nil {
		return translate("user create", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, op, where string, args ...any) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, translate(op, err)
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "user by id", `id = $1`, id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "user by username", `username = $1`, username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "user by email", `email = $1`, email)
}

func (r *userRepository) FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	return r.findOne(ctx, "user by username and email", `username = $1 AND email = $2`, username, email)
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	const where = ` WHERE ($1 = '' OR username ILIKE '%' || $1 || '%')`

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, filter.Search).Scan(&total); err != nil {
		return nil, 0, translate("user count", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT` + userColumns + ` FROM users` + where + ` ORDER BY username LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, q, filter.Search, limit, filter.Offset)
	if err != nil {
		return nil, 0, translate("user list", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("user list scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("user list rows: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET confirmation_seq = confirmation_seq +
				CASE WHEN username <> $1 OR email <> $2 THEN 1 ELSE 0 END,
			username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, role = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING confirmation_seq, updated_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		user.ID,
	).Scan(&user.ConfirmationSeq, &user.UpdatedAt)
	if err != nil {
		return translate("user update", err)
	}
	return nil
}

func (r *userRepository) DeleteByUsername(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return translate("user delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) RotateConfirmation(ctx context.Context, id int64) (*models.User, error) {
	q := `
		UPDATE users
		SET confirmation_seq = confirmation_seq + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING` + userColumns
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translate("user rotate confirmation", err)
	}
	return u, nil
}

func (r *userRepository) MarkActivated(ctx context.Context, user *models.User, at time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET is_active = TRUE, last_login = $2, updated_at = NOW()
		WHERE id = $1 AND confirmation_seq = $3 AND last_login IS NOT DISTINCT FROM $4
		RETURNING` + userColumns
	var prev sql.NullTime
	if user.LastLogin != nil {
		prev = sql.NullTime{Time: *user.LastLogin, Valid: true}
	}
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, user.ID, at, user.ConfirmationSeq, prev))
	if err != nil {
		return nil, translate("user mark activated", err)
	}
	return u, nil
}
