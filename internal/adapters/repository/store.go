// Package repository holds the in-memory motor identity index served by
// the lookup API.
package repository

import (
	"context"

	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
)

// Store provides read access to an identity interval table and lets the
// owner swap the whole table at once.
type Store interface {
	// Replace publishes a new interval table. Readers see either the old or
	// the new table, never a mix.
	Replace(ctx context.Context, ivs []model.MotorIdentityInterval) error

	// Intervals returns the slot's intervals ordered by start.
	Intervals(slot model.Slot) []model.MotorIdentityInterval

	// Lookup resolves the slot's identity on date d.
	// Returns ErrNotFound if the slot is unknown.
	Lookup(ctx context.Context, slot model.Slot, d model.Date) (join.Match, error)

	// Identity returns the interval of a motor identity.
	// Returns ErrNotFound if the identity is unknown.
	Identity(ctx context.Context, id string) (model.MotorIdentityInterval, error)

	// Count returns the number of intervals indexed.
	Count(ctx context.Context) int
}
