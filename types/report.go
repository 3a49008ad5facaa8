package types

// ReportSummary is the aggregated view over all complaints returned by
// the admin reports endpoint.
type ReportSummary struct {
	// StatusCounts maps each complaint status to the number of complaints
	// currently in that status.
	StatusCounts map[Status]int `json:"status_counts"`

	// DepartmentCounts maps department names to the number of complaints
	// routed to them.
	DepartmentCounts map[string]int `json:"department_counts"`

	// AverageResolutionSeconds is the mean of (updated_at - created_at)
	// across Resolved and Closed complaints, in seconds. Zero when no
	// complaint has reached a terminal status.
	AverageResolutionSeconds float64 `json:"average_resolution_seconds"`

	// AverageResolutionDays is AverageResolutionSeconds truncated to whole
	// days, kept for compatibility with the legacy report format.
	AverageResolutionDays int `json:"average_resolution_days"`
}
