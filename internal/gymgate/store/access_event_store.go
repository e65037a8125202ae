package store

import (
	"context"
	"time"
)

// AccessEventRecord captures a single access decision for the audit log.
// MemberID is nil when the scanned device code did not resolve to a member.
type AccessEventRecord struct {
	MemberID       *string
	DeviceUserCode string
	Allowed        bool
	Reason         string
	BiometricType  string
	OccurredAt     time.Time
	RecordedAt     time.Time
}

// AccessEventStore persists access decisions as an append-only audit log.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
}
