// Package identity infers motor generations for each motor slot from the
// two-place rate history and validates interval tables.
package identity

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/okian/motorgen/internal/domain/model"
)

// Mode selects how replacement candidates are detected.
type Mode string

const (
	// ModeTransition flags days where the rate drops from a positive value
	// to exactly zero.
	ModeTransition Mode = "transition"
	// ModeAnyZero flags every day with a zero rate.
	ModeAnyZero Mode = "any-zero"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTransition, ModeAnyZero:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

const maxComponent = 99

// FormatIdentity builds the fixed-width identity VVMMGG from a venue code,
// motor number and generation index.
func FormatIdentity(venue string, motor, generation int) (string, error) {
	v, err := strconv.Atoi(venue)
	if err != nil || v < 0 || v > maxComponent || len(venue) != 2 {
		return "", fmt.Errorf("%w: venue %q", ErrIdentityOverflow, venue)
	}
	if motor < 0 || motor > maxComponent || generation < 1 || generation > maxComponent {
		return "", fmt.Errorf("%w: venue %s motor %d generation %d", ErrIdentityOverflow, venue, motor, generation)
	}
	return fmt.Sprintf("%02d%02d%02d", v, motor, generation), nil
}

// ParseIdentity splits a VVMMGG identity into its components.
func ParseIdentity(id string) (venue string, motor, generation int, err error) {
	if len(id) != 6 {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
		}
	}
	motor, _ = strconv.Atoi(id[2:4])
	generation, _ = strconv.Atoi(id[4:6])
	return id[:2], motor, generation, nil
}

// SlotHistory is the snapshot history of one slot.
type SlotHistory struct {
	Slot    model.Slot
	Records []model.SnapshotRecord
}

// GroupBySlot partitions records per slot. Groups are ordered by venue
// then motor number; records inside a group keep their input order.
func GroupBySlot(recs []model.SnapshotRecord) []SlotHistory {
	idx := map[model.Slot]int{}
	var groups []SlotHistory
	for _, r := range recs {
		s := r.Slot()
		i, ok := idx[s]
		if !ok {
			i = len(groups)
			idx[s] = i
			groups = append(groups, SlotHistory{Slot: s})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.Slice(groups, func(i, j int) bool { return slotLess(groups[i].Slot, groups[j].Slot) })
	return groups
}

func slotLess(a, b model.Slot) bool {
	if a.Venue != b.Venue {
		return a.Venue < b.Venue
	}
	return a.MotorNumber < b.MotorNumber
}

// SortIntervals orders intervals by venue, motor number and start.
func SortIntervals(ivs []model.MotorIdentityInterval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		a, b := ivs[i], ivs[j]
		if a.Slot() != b.Slot() {
			return slotLess(a.Slot(), b.Slot())
		}
		return a.ValidFrom < b.ValidFrom
	})
}
