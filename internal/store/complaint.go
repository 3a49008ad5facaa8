package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/civitrack/apiserver/types"
)

// ComplaintFilter narrows complaint listings. Zero fields are ignored;
// set fields are ANDed together.
type ComplaintFilter struct {
	OwnerID      int
	AssignedTo   int
	DepartmentID int
	Status       types.Status
}

// ComplaintRepository handles persistence for complaints. The update
// history is embedded in the row as a JSONB array and only ever grows;
// appends happen in a single UPDATE so the top-level status and the last
// history entry cannot diverge.
type ComplaintRepository struct {
	db *sql.DB
}

func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint types.Complaint) (types.Complaint, error) {
	now := time.Now()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	updatesJSON, err := json.Marshal(complaint.Updates)
	if err != nil {
		return types.Complaint{}, err
	}

	const query = `
		INSERT INTO complaints (user_id, department_id, assigned_to, title, description,
			category, priority, status, attachment_key, created_at, updated_at, updates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		complaint.UserID,
		complaint.DepartmentID,
		complaint.AssignedTo,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.AttachmentKey,
		complaint.CreatedAt,
		complaint.UpdatedAt,
		updatesJSON,
	).Scan(&complaint.ID); err != nil {
		switch pqCode(err) {
		case pgForeignKeyViolation:
			// Referenced user or department does not exist.
			return types.Complaint{}, ErrNotFound
		case pgCheckViolation:
			return types.Complaint{}, ErrInvalidValue
		}
		return types.Complaint{}, err
	}
	return complaint, nil
}

// Get returns a single complaint with the owner, department and assignee
// references resolved.
func (r *ComplaintRepository) Get(ctx context.Context, id int) (types.Complaint, error) {
	const query = `
		SELECT c.id, c.user_id, c.department_id, c.assigned_to, c.title, c.description,
			c.category, c.priority, c.status, c.attachment_key, c.created_at, c.updated_at,
			c.updates,
			u.name, u.email, d.name,
			a.name, a.email
		FROM complaints c
		JOIN users u ON u.id = c.user_id
		JOIN departments d ON d.id = c.department_id
		LEFT JOIN users a ON a.id = c.assigned_to
		WHERE c.id = $1`

	var (
		complaint     types.Complaint
		updatesJSON   []byte
		ownerName     string
		ownerEmail    string
		deptName      string
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&complaint.ID,
		&complaint.UserID,
		&complaint.DepartmentID,
		&complaint.AssignedTo,
		&complaint.Title,
		&complaint.Description,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Status,
		&complaint.AttachmentKey,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&updatesJSON,
		&ownerName,
		&ownerEmail,
		&deptName,
		&assigneeName,
		&assigneeEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Complaint{}, ErrNotFound
		}
		return types.Complaint{}, err
	}

	if err := json.Unmarshal(updatesJSON, &complaint.Updates); err != nil {
		return types.Complaint{}, err
	}

	complaint.User = &types.UserRef{ID: complaint.UserID, Name: ownerName, Email: ownerEmail}
	complaint.Department = deptName
	if complaint.AssignedTo != nil {
		complaint.Assignee = &types.UserRef{
			ID:    *complaint.AssignedTo,
			Name:  assigneeName.String,
			Email: assigneeEmail.String,
		}
	}
	return complaint, nil
}

// List returns complaints matching the filter, newest first, with owner
// and department names resolved.
func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]types.Complaint, error) {
	const query = `
		SELECT c.id, c.user_id, c.department_id, c.assigned_to, c.title, c.description,
			c.category, c.priority, c.status, c.attachment_key, c.created_at, c.updated_at,
			c.updates,
			u.name, d.name
		FROM complaints c
		JOIN users u ON u.id = c.user_id
		JOIN departments d ON d.id = c.department_id
		WHERE ($1 = 0 OR c.user_id = $1)
			AND ($2 = 0 OR c.assigned_to = $2)
			AND ($3 = 0 OR c.department_id = $3)
			AND ($4 = '' OR c.status = $4)
		ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(
		ctx,
		query,
		filter.OwnerID,
		filter.AssignedTo,
		filter.DepartmentID,
		string(filter.Status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []types.Complaint
	for rows.Next() {
		var (
			complaint   types.Complaint
			updatesJSON []byte
			ownerName   string
			deptName    string
		)
		if err := rows.Scan(
			&complaint.ID,
			&complaint.UserID,
			&complaint.DepartmentID,
			&complaint.AssignedTo,
			&complaint.Title,
			&complaint.Description,
			&complaint.Category,
			&complaint.Priority,
			&complaint.Status,
			&complaint.AttachmentKey,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
			&updatesJSON,
			&ownerName,
			&deptName,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(updatesJSON, &complaint.Updates); err != nil {
			return nil, err
		}
		complaint.User = &types.UserRef{ID: complaint.UserID, Name: ownerName}
		complaint.Department = deptName
		complaints = append(complaints, complaint)
	}
	return complaints, rows.Err()
}

// AppendUpdate appends one history entry and moves the top-level status
// and updated_at in the same statement.
func (r *ComplaintRepository) AppendUpdate(ctx context.Context, id int, update types.Update) error {
	updateJSON, err := json.Marshal(update)
	if err != nil {
		return err
	}

	const query = `
		UPDATE complaints
		SET updates = updates || $2::jsonb,
			status = $3,
			updated_at = $4
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, updateJSON, update.Status, update.Timestamp)
	if err != nil {
		if pqCode(err) == pgCheckViolation {
			return ErrInvalidValue
		}
		return err
	}
	return expectOneRow(result)
}

// Assign sets the handling officer, forces the status to InProgress and
// appends the audit entry, all in one statement.
func (r *ComplaintRepository) Assign(ctx context.Context, id, officerID int, update types.Update) error {
	updateJSON, err := json.Marshal(update)
	if err != nil {
		return err
	}

	const query = `
		UPDATE complaints
		SET assigned_to = $2,
			updates = updates || $3::jsonb,
			status = $4,
			updated_at = $5
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, officerID, updateJSON, update.Status, update.Timestamp)
	if err != nil {
		if pqCode(err) == pgForeignKeyViolation {
			return ErrNotFound
		}
		return err
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
