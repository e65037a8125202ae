package store

import (
	"context"
	"time"

	"github.com/gymgate/server/internal/gymgate/types"
)

// MemberStore is the access-control view over the system of record.  The
// CRUD layer that owns the full client profile lives outside this core;
// these are the shapes it must provide.
//
// Lookups return (nil, nil) when no member matches — absence is a routine
// outcome for device-originated scans, not an error.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (*types.Member, error)
	GetByDeviceCode(ctx context.Context, code string) (*types.Member, error)

	Create(ctx context.Context, m *types.Member) error
	Delete(ctx context.Context, id string) error

	// ReplaceSchedule swaps the whole weekly schedule; per-day edits are
	// not supported by the protocol.
	ReplaceSchedule(ctx context.Context, id string, sched types.Schedule) error

	SetAccessActive(ctx context.Context, id string, active bool) error
	SetFingerprintEnrolled(ctx context.Context, id string, enrolled bool) error

	// IncrementAccessAttempt bumps the attempt counter; it never decreases.
	IncrementAccessAttempt(ctx context.Context, id string, at time.Time) error

	// MarkAccessGranted records a successful entry; last-access time only
	// moves forward.
	MarkAccessGranted(ctx context.Context, id string, at time.Time) error
}
