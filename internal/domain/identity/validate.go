package identity

import (
	"fmt"
	"strings"

	"github.com/okian/motorgen/internal/domain/model"
)

const maxExamples = 5

// OverlapError lists slots whose intervals collide.
type OverlapError struct {
	Examples []string
	Total    int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %d slot(s), e.g. %s", ErrOverlappingIntervals, e.Total, strings.Join(e.Examples, ", "))
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingIntervals }

// Validate checks an interval table: per slot, intervals are ordered and
// do not overlap, each ends on or after its start, generations strictly
// increase, and only the last interval may be open. Gaps between
// intervals are allowed; rows in a gap simply resolve to nothing.
func Validate(ivs []model.MotorIdentityInterval) error {
	sorted := make([]model.MotorIdentityInterval, len(ivs))
	copy(sorted, ivs)
	SortIntervals(sorted)

	var bad []string
	flagged := map[model.Slot]bool{}
	flag := func(iv model.MotorIdentityInterval, why string) {
		if flagged[iv.Slot()] {
			return
		}
		flagged[iv.Slot()] = true
		bad = append(bad, fmt.Sprintf("%s (%s)", iv.Slot(), why))
	}

	for i, iv := range sorted {
		if iv.ValidTo < iv.ValidFrom {
			flag(iv, "ends before it starts")
			continue
		}
		if i == 0 || sorted[i-1].Slot() != iv.Slot() {
			continue
		}
		prev := sorted[i-1]
		switch {
		case prev.ValidFrom == iv.ValidFrom:
			flag(iv, "duplicate start "+iv.ValidFrom.String())
		case prev.ValidTo >= iv.ValidFrom:
			flag(iv, fmt.Sprintf("generations %d and %d overlap", prev.Generation, iv.Generation))
		case prev.Generation >= iv.Generation:
			flag(iv, "generation index not increasing")
		}
	}
	if len(bad) == 0 {
		return nil
	}
	ex := bad
	if len(ex) > maxExamples {
		ex = ex[:maxExamples]
	}
	return &OverlapError{Examples: ex, Total: len(bad)}
}
