package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafe-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User, passwordHash string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	var (
		u    User
		role string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, active, email_verified, profile_completed
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &role, &u.Active, &u.EmailVerified, &u.ProfileCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if u.Role, err = ParseRole(role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u *User, passwordHash string) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password, role, active, email_verified, profile_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		u.Username, u.Email, passwordHash, u.Role.String(),
		u.Active, u.EmailVerified, u.ProfileCompleted,
	).Scan(&u.ID)

	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert user",
			zap.String("email", u.Email),
			zap.Error(err),
		)
	}
	return err
}
