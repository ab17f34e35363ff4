package finding

import "errors"

// ErrInvalidStatus is returned when a finding status string is unknown.
var ErrInvalidStatus = errors.New("invalid finding status")

// Status is the triage status of a finding.
type Status string

const (
	StatusNotAnalyzed           Status = "NOT_ANALYZED"
	StatusUnderReview           Status = "UNDER_REVIEW"
	StatusClarificationRequired Status = "CLARIFICATION_REQUIRED"
	StatusFalsePositive         Status = "FALSE_POSITIVE"
	StatusTruePositive          Status = "TRUE_POSITIVE"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusNotAnalyzed, StatusUnderReview, StatusClarificationRequired, StatusFalsePositive, StatusTruePositive:
		return true
	default:
		return false
	}
}

// AllStatuses returns the closed set of finding statuses.
func AllStatuses() []Status {
	return []Status{
		StatusNotAnalyzed,
		StatusUnderReview,
		StatusClarificationRequired,
		StatusFalsePositive,
		StatusTruePositive,
	}
}

// ParseStatus parses a finding status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// StatusAggregate holds per-status finding counts for a set of scans. One
// integer field per status keeps the bucket set closed at compile time.
type StatusAggregate struct {
	TruePositive          int `json:"true_positive"`
	FalsePositive         int `json:"false_positive"`
	NotAnalyzed           int `json:"not_analyzed"`
	UnderReview           int `json:"under_review"`
	ClarificationRequired int `json:"clarification_required"`
	Total                 int `json:"total_findings_count"`
}

// Add accumulates count findings with the given status into the aggregate.
// Unknown statuses count as NOT_ANALYZED.
func (a *StatusAggregate) Add(status Status, count int) {
	switch status {
	case StatusTruePositive:
		a.TruePositive += count
	case StatusFalsePositive:
		a.FalsePositive += count
	case StatusUnderReview:
		a.UnderReview += count
	case StatusClarificationRequired:
		a.ClarificationRequired += count
	default:
		a.NotAnalyzed += count
	}
	a.Total += count
}
