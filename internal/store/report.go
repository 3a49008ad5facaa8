package store

import (
	"context"
	"database/sql"

	"github.com/civitrack/apiserver/types"
)

// ReportRepository runs read-only aggregation queries over the complaint
// collection. It never mutates anything.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// StatusCounts returns the number of complaints per status.
func (r *ReportRepository) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	const query = `
		SELECT status, COUNT(1)
		FROM complaints
		GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.Status]int)
	for rows.Next() {
		var status types.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DepartmentCounts returns the number of complaints per department name.
func (r *ReportRepository) DepartmentCounts(ctx context.Context) (map[string]int, error) {
	const query = `
		SELECT d.name, COUNT(1)
		FROM complaints c
		JOIN departments d ON d.id = c.department_id
		GROUP BY d.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// AverageResolutionSeconds returns the mean of (updated_at - created_at)
// over Resolved and Closed complaints, in seconds. Zero when no
// complaint has reached a terminal status.
func (r *ReportRepository) AverageResolutionSeconds(ctx context.Context) (float64, error) {
	const query = `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM updated_at - created_at)), 0)
		FROM complaints
		WHERE status IN ('Resolved', 'Closed')`
	var avg float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}
