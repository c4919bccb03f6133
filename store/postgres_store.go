package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/princinho/sessionauth/models"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar, cover_image,
	password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		uuid.NewString(), u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindPublicByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (s *PostgresStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	username, email := normalizeIdentifier(identifier)
	return s.queryOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $2 LIMIT 1`,
		username, email,
	)
}

func (s *PostgresStore) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.exec(ctx, `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, token)
}

func (s *PostgresStore) SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrNotFound
	}
	if current == "" {
		return false, nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now() WHERE id = $1 AND refresh_token = $2`,
		id, current, next,
	)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) ClearRefreshToken(ctx context.Context, id string) error {
	return s.exec(ctx, `UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1`, id)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.exec(ctx, `UPDATE users SET password_hash = $2, refresh_token = NULL, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (s *PostgresStore) exec(ctx context.Context, sql string, id string, args ...any) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, sql string, args ...any) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
