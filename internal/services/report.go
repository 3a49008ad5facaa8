package services

import (
	"context"

	"github.com/civitrack/apiserver/types"
)

const secondsPerDay = 24 * 60 * 60

// ReportRepository defines the read-only aggregations behind the
// summary report.
type ReportRepository interface {
	StatusCounts(ctx context.Context) (map[types.Status]int, error)
	DepartmentCounts(ctx context.Context) (map[string]int, error)
	AverageResolutionSeconds(ctx context.Context) (float64, error)
}

// ReportService derives summary statistics from the complaint
// collection. Pure read side; it shares no state with the lifecycle
// engine beyond the store.
type ReportService struct {
	repo ReportRepository
}

func NewReportService(repo ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Summary aggregates status counts, department counts, and the mean
// resolution latency over Resolved/Closed complaints.
func (s *ReportService) Summary(ctx context.Context) (types.ReportSummary, error) {
	statusCounts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return types.ReportSummary{}, err
	}

	deptCounts, err := s.repo.DepartmentCounts(ctx)
	if err != nil {
		return types.ReportSummary{}, err
	}

	avgSeconds, err := s.repo.AverageResolutionSeconds(ctx)
	if err != nil {
		return types.ReportSummary{}, err
	}

	return types.ReportSummary{
		StatusCounts:             statusCounts,
		DepartmentCounts:         deptCounts,
		AverageResolutionSeconds: avgSeconds,
		AverageResolutionDays:    int(avgSeconds / secondsPerDay),
	}, nil
}
