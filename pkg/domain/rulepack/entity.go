// Package rulepack tracks the versions of the detection rule pack used by
// scans. Rule file contents are handled by the scanner, only version
// bookkeeping lives here.
package rulepack

import (
	"regexp"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// versionRegex matches semantic-style versions such as 1.0.0 or 2.10.3.
var versionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// RulePack represents one published version of the detection rule pack.
type RulePack struct {
	Version   string
	Active    bool
	CreatedAt time.Time
}

// NewRulePack registers a new rule pack version. Versions are created
// inactive and promoted via activation.
func NewRulePack(version string) (*RulePack, error) {
	if !versionRegex.MatchString(version) {
		return nil, shared.NewDomainError("VALIDATION", "version must be of the form MAJOR.MINOR.PATCH", shared.ErrValidation)
	}

	return &RulePack{
		Version:   version,
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}, nil
}
