package scan

import "errors"

// ErrInvalidType is returned when a scan type string is unknown.
var ErrInvalidType = errors.New("invalid scan type")

// Type distinguishes full baseline scans from incremental follow-ups.
type Type string

const (
	// TypeBase is a full scan establishing a new zero point for a branch.
	TypeBase Type = "BASE"
	// TypeIncremental covers only commits since the prior scan in the chain.
	TypeIncremental Type = "INCREMENTAL"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeBase, TypeIncremental:
		return true
	default:
		return false
	}
}

// AllTypes returns the closed set of scan types.
func AllTypes() []Type {
	return []Type{TypeBase, TypeIncremental}
}

// ParseType parses a scan type string.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}
