package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/civitrack/apiserver/types"
	"github.com/lib/pq"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, name, email, role, contact_no, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, name, email, role, contact_no, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, email, role, contact_no, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.ContactNo,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		switch pqCode(err) {
		case pgUniqueViolation:
			return types.User{}, ErrDuplicate
		case pgCheckViolation:
			return types.User{}, ErrInvalidValue
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns all users, optionally restricted to a single role,
// ordered by id.
func (r *UserRepository) List(ctx context.Context, role types.Role) ([]types.User, error) {
	const query = `
		SELECT id, name, email, role, contact_no, password_hash, created_at, updated_at
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.ContactNo,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetRefs resolves a set of user IDs to name/role references in one
// query. Unknown IDs are simply absent from the result.
func (r *UserRepository) GetRefs(ctx context.Context, ids []int) (map[int]types.UserRef, error) {
	if len(ids) == 0 {
		return map[int]types.UserRef{}, nil
	}

	const query = `
		SELECT id, name, role
		FROM users
		WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[int]types.UserRef, len(ids))
	for rows.Next() {
		var ref types.UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Role); err != nil {
			return nil, err
		}
		refs[ref.ID] = ref
	}
	return refs, rows.Err()
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ContactNo,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
