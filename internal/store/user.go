package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/authgate/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	uniqueViolation    = pq.ErrorCode("23505")
	readyTimeout       = 2 * time.Second
	maxTokenCollisions = 3
)

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

const tokenConstraint = "users_access_token_key"

// UserRepository is the credential store. Uniqueness of username and email
// is enforced by table constraints so concurrent creates cannot both win.
type UserRepository struct {
	db        *sql.DB
	newToken  func() (types.AccessToken, error)
	newUserID func() string
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db:        db,
		newToken:  NewAccessToken,
		newUserID: func() string { return uuid.NewString() },
	}
}

// Ready reports whether the database answers a ping.
func (r *UserRepository) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

// Create inserts a user and assigns its id and access token. The token is
// written once here and no statement in this package updates it.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (id, username, email, password_hash, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for attempt := 1; ; attempt++ {
		token, err := r.newToken()
		if err != nil {
			return types.User{}, fmt.Errorf("generate access token: %w", err)
		}
		user.ID = r.newUserID()
		user.AccessToken = token

		_, err = r.db.ExecContext(
			ctx,
			query,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.AccessToken.Value(),
			time.Now(),
		)
		if err == nil {
			return user, nil
		}

		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
			return types.User{}, err
		}
		if pqErr.Constraint == tokenConstraint && attempt < maxTokenCollisions {
			continue
		}
		return types.User{}, &ConflictError{Field: constraintFields[pqErr.Constraint]}
	}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, username, email, password_hash, access_token
		FROM users
		WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *UserRepository) GetByToken(ctx context.Context, token types.AccessToken) (types.User, error) {
	if token.IsZero() {
		return types.User{}, ErrNotFound
	}
	const query = `
		SELECT id, username, email, password_hash, access_token
		FROM users
		WHERE access_token = $1`
	return r.getOne(ctx, query, token.Value())
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	var token string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&token,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.AccessToken = types.AccessToken(token)
	return user, nil
}
