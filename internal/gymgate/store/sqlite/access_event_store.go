package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/gymgate/server/internal/db"
	"github.com/gymgate/server/internal/gymgate/store"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	var memberID any
	if rec.MemberID != nil {
		memberID = *rec.MemberID
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  member_id, device_user_code, allowed, reason,
  biometric_type, occurred_at_ms, recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			memberID, rec.DeviceUserCode, boolInt(rec.Allowed), rec.Reason,
			rec.BiometricType, rec.OccurredAt.UTC().UnixMilli(), rec.RecordedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}
