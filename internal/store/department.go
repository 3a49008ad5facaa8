package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/civitrack/apiserver/types"
)

// DepartmentRepository handles persistence for departments.
type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int) (types.Department, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		WHERE id = $1`
	var dept types.Department
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Department{}, ErrNotFound
		}
		return types.Department{}, err
	}
	return dept, nil
}

// List returns all departments sorted by name ascending.
func (r *DepartmentRepository) List(ctx context.Context) ([]types.Department, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depts []types.Department
	for rows.Next() {
		var dept types.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Description,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		depts = append(depts, dept)
	}
	return depts, rows.Err()
}

func (r *DepartmentRepository) Create(ctx context.Context, dept types.Department) (types.Department, error) {
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	const query = `
		INSERT INTO departments (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		dept.Name,
		dept.Description,
		dept.CreatedAt,
		dept.UpdatedAt,
	).Scan(&dept.ID); err != nil {
		if pqCode(err) == pgUniqueViolation {
			return types.Department{}, ErrDuplicate
		}
		return types.Department{}, err
	}
	return dept, nil
}

func (r *DepartmentRepository) Update(ctx context.Context, dept types.Department) (types.Department, error) {
	dept.UpdatedAt = time.Now()

	const query = `
		UPDATE departments
		SET name = $1,
			description = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, dept.Name, dept.Description, dept.UpdatedAt, dept.ID)
	if err != nil {
		if pqCode(err) == pgUniqueViolation {
			return types.Department{}, ErrDuplicate
		}
		return types.Department{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Department{}, err
	}
	if affected == 0 {
		return types.Department{}, ErrNotFound
	}
	return dept, nil
}

// Delete removes a department. The RESTRICT foreign key from complaints
// makes the in-use check and the delete a single atomic statement; a
// racing complaint creation either commits first and blocks the delete
// or fails its own insert.
func (r *DepartmentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM departments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqCode(err) == pgForeignKeyViolation {
			return ErrInUse
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
