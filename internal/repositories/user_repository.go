package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("email or username already in use")
)

const userColumns = `id, email, username, password_hash, avatar_url, created_at`

// UserRepository abstracts account persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, email, username, passwordHash, avatarURL string) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	GetByLogin(ctx context.Context, login string) (models.User, error)
	ListOthers(ctx context.Context, userID int) ([]models.User, error)
	SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error)
	UpdateAvatar(ctx context.Context, userID int, avatarURL string) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new account. Unique violations on email or username
// surface as ErrDuplicateUser.
func (r *UserRepo) CreateUser(ctx context.Context, email, username, passwordHash, avatarURL string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (email, username, password_hash, avatar_url) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		email, username, passwordHash, avatarURL)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return models.User{}, ErrDuplicateUser
	}
	return user, err
}

// GetUser fetches an account by id.
func (r *UserRepo) GetUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByLogin fetches an account by email or username.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1 OR username=$1`, login)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListOthers returns every account except userID, ordered by username.
func (r *UserRepo) ListOthers(ctx context.Context, userID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY username ASC`, userID)
	return users, err
}

// SearchByUsername returns accounts whose username contains the query,
// case-insensitive.
func (r *UserRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE '%' || $1 || '%' ORDER BY username ASC LIMIT $2`,
		query, limit)
	return users, err
}

// UpdateAvatar sets the avatar URL and returns the updated account.
func (r *UserRepo) UpdateAvatar(ctx context.Context, userID int, avatarURL string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`UPDATE users SET avatar_url=$2 WHERE id=$1 RETURNING `+userColumns, userID, avatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
