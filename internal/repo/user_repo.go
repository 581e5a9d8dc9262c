package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
	"github.com/lib/pq"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when creating a user with an email already in use
	ErrEmailTaken = errors.New("email already registered")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// UserRepo defines the interface for user directory operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.NewUser) (model.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a Postgres-backed UserRepo
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, is_verified, created_at, updated_at`

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByEmail retrieves a user by normalized email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

// Create inserts a new unverified user
func (r *userRepo) Create(ctx context.Context, u model.NewUser) (model.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	user, err := r.scanOne(r.db.QueryRowContext(ctx, query,
		NormalizeEmail(u.Email), u.PasswordHash, u.FirstName, u.LastName))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	return user, nil
}

// MarkVerified sets is_verified for the user
func (r *userRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1
	`, id.String())
}

// UpdatePassword replaces the stored password hash
func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.execOne(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id.String(), passwordHash)
}

func (r *userRepo) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepo) scanOne(row *sql.Row) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(
		&idStr,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}
