package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/motorgen/internal/domain/identity"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/pkg/logger"
)

// Snapshot is an immutable view of one interval table.
type Snapshot struct {
	BySlot     join.Groups
	ByIdentity map[string]model.MotorIdentityInterval
	Count      int
	Version    uint64
	BuiltAt    time.Time
}

// IntervalStore indexes intervals per slot, each slot ordered by start,
// so that a lookup is a binary search inside one small group. Reads go
// through an atomically published Snapshot and never block.
type IntervalStore struct {
	mu       sync.Mutex // serializes Replace
	validate bool
	log      logger.Logger
	version  uint64

	snapshot atomic.Pointer[Snapshot]
}

// NewIntervalStore constructs an empty store. Validation is on by default.
func NewIntervalStore(opts ...Option) *IntervalStore {
	s := &IntervalStore{validate: true, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{BySlot: join.Groups{}, ByIdentity: map[string]model.MotorIdentityInterval{}})
	return s
}

// Replace implements Store.Replace. A table failing validation is
// rejected and the previous snapshot stays in place.
func (s *IntervalStore) Replace(ctx context.Context, ivs []model.MotorIdentityInterval) error {
	if s.validate {
		if err := identity.Validate(ivs); err != nil {
			return err
		}
	}
	byID := make(map[string]model.MotorIdentityInterval, len(ivs))
	for _, iv := range ivs {
		if _, dup := byID[iv.Identity]; dup && s.validate {
			return fmt.Errorf("%w: %s", ErrDuplicateID, iv.Identity)
		}
		byID[iv.Identity] = iv
	}
	groups := join.GroupIntervals(append([]model.MotorIdentityInterval(nil), ivs...))

	s.mu.Lock()
	s.version++
	snap := &Snapshot{
		BySlot:     groups,
		ByIdentity: byID,
		Count:      len(ivs),
		Version:    s.version,
		BuiltAt:    time.Now(),
	}
	s.snapshot.Store(snap)
	s.mu.Unlock()

	s.log.Debug(ctx, "interval index published",
		logger.Int("intervals", snap.Count),
		logger.Int("slots", len(groups)),
		logger.Int64("version", int64(snap.Version)))
	return nil
}

// Snapshot returns the current view.
func (s *IntervalStore) Snapshot() *Snapshot { return s.snapshot.Load() }

// Intervals implements Store.Intervals and join.Source.
func (s *IntervalStore) Intervals(slot model.Slot) []model.MotorIdentityInterval {
	return s.snapshot.Load().BySlot[slot]
}

// Lookup implements Store.Lookup. A known slot without a covering
// interval yields a Match with Found false and no error.
func (s *IntervalStore) Lookup(ctx context.Context, slot model.Slot, d model.Date) (join.Match, error) {
	ivs, ok := s.snapshot.Load().BySlot[slot]
	if !ok {
		return join.Match{}, fmt.Errorf("%w: slot %s", ErrNotFound, slot)
	}
	return join.MatchDate(ivs, d), nil
}

// Identity implements Store.Identity.
func (s *IntervalStore) Identity(ctx context.Context, id string) (model.MotorIdentityInterval, error) {
	iv, ok := s.snapshot.Load().ByIdentity[id]
	if !ok {
		return model.MotorIdentityInterval{}, fmt.Errorf("%w: identity %s", ErrNotFound, id)
	}
	return iv, nil
}

// Count implements Store.Count.
func (s *IntervalStore) Count(ctx context.Context) int {
	return s.snapshot.Load().Count
}
