package domain

import (
	"fmt"
	"strings"
)

// Distribution selects how tasks are spread over their block's window.
type Distribution string

const (
	DistributionFrontload Distribution = "frontload"
	DistributionBalanced  Distribution = "balanced"
	DistributionEven      Distribution = "even"
)

// ParseDistribution accepts a strategy name. The empty string selects
// frontload.
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DistributionFrontload, nil
	case DistributionFrontload, DistributionBalanced, DistributionEven:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDistribution, s)
	}
}

func (d Distribution) String() string {
	return string(d)
}

// Options are the caller's recalculation settings.
type Options struct {
	RespectLocks bool
	Distribution Distribution
}

// DefaultOptions respects locks and front-loads.
func DefaultOptions() Options {
	return Options{RespectLocks: true, Distribution: DistributionFrontload}
}
