package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storehub/storehub-auth/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserColumns = `id, email, name, address, password_hash, role, refresh_token, created_at, updated_at`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, selectUserColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, selectUserColumns)
	user, err := r.scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (id, email, name, address, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + selectUserColumns

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Email,
		user.Name,
		user.Address,
		user.PasswordHash,
		string(user.Role),
	)
	created, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

const setRefreshTokenSQL = `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`

func (r *PostgresUserRepo) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	var value sql.NullString
	if token != "" {
		value = sql.NullString{String: token, Valid: true}
	}
	if _, err := r.db.Exec(ctx, setRefreshTokenSQL, userID, value); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func (r *PostgresUserRepo) scanUser(row pgxRow) (domain.User, error) {
	var (
		user    domain.User
		role    string
		refresh sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Address,
		&user.PasswordHash,
		&role,
		&refresh,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.Role = domain.Role(role)
	user.RefreshToken = refresh.String
	return user, nil
}
