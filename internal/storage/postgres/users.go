package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fdg312/nomnom/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUsersStorage — Postgres реализация UsersStorage
type PostgresUsersStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresUsersStorage создаёт новый PostgresUsersStorage
func NewPostgresUsersStorage(pool *pgxpool.Pool) *PostgresUsersStorage {
	return &PostgresUsersStorage{pool: pool}
}

func (s *PostgresUsersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if user.Role == "" {
		user.Role = "user"
	}
	user.CreatedAt = time.Now()

	err := s.pool.QueryRow(ctx, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.FullName,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (email уже занят)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrEmailTaken
		}
		return err
	}

	return nil
}

func (s *PostgresUsersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := `
		SELECT id, email, password_hash, role, full_name, created_at
		FROM users
		WHERE email = $1
	`

	var u storage.User
	err := s.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.FullName,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (s *PostgresUsersStorage) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	query := `
		SELECT id, email, password_hash, role, full_name, created_at
		FROM users
		WHERE id = $1
	`

	var u storage.User
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.FullName,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}
