package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/gymgate/server/internal/db"
	"github.com/gymgate/server/internal/gymgate/types"
)

type MemberStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewMemberStore(db *sql.DB, writer *dbpkg.Worker) *MemberStore {
	return &MemberStore{db: db, writer: writer}
}

const memberColumns = `
member_id, device_user_code, display_name,
access_active, fingerprint_enrolled,
package_end_ms, pending_amount,
last_access_ms, access_attempts,
created_at_ms, updated_at_ms`

func (s *MemberStore) GetByID(ctx context.Context, id string) (*types.Member, error) {
	return s.getWhere(ctx, "member_id = ?", id)
}

func (s *MemberStore) GetByDeviceCode(ctx context.Context, code string) (*types.Member, error) {
	return s.getWhere(ctx, "device_user_code = ?", code)
}

func (s *MemberStore) getWhere(ctx context.Context, where string, arg any) (*types.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+where+";", arg)

	var (
		m                    types.Member
		active, enrolled     int
		packageEnd, lastSeen sql.NullInt64
		createdMs, updatedMs int64
	)
	err := row.Scan(
		&m.ID, &m.DeviceUserCode, &m.DisplayName,
		&active, &enrolled,
		&packageEnd, &m.PendingAmount,
		&lastSeen, &m.AccessAttempts,
		&createdMs, &updatedMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("member query: %w", err)
	}

	m.AccessActive = active == 1
	m.FingerprintEnrolled = enrolled == 1
	if packageEnd.Valid {
		t := time.UnixMilli(packageEnd.Int64).UTC()
		m.PackageEndDate = &t
	}
	if lastSeen.Valid {
		t := time.UnixMilli(lastSeen.Int64).UTC()
		m.LastAccessAt = &t
	}
	m.CreatedAt = time.UnixMilli(createdMs).UTC()
	m.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	if err := s.loadSchedule(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// loadSchedule overlays the stored weekday rows onto an all-disabled week,
// so a missing row reads as "no access that day" rather than an error.
func (s *MemberStore) loadSchedule(ctx context.Context, m *types.Member) error {
	for d := time.Sunday; d <= time.Saturday; d++ {
		m.Schedule[int(d)] = types.ScheduleEntry{Weekday: d}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT weekday, start_min, end_min, enabled
FROM member_schedules
WHERE member_id = ?;`, m.ID)
	if err != nil {
		return fmt.Errorf("schedule query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var weekday, start, end, enabled int
		if err := rows.Scan(&weekday, &start, &end, &enabled); err != nil {
			return fmt.Errorf("schedule scan: %w", err)
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		m.Schedule[weekday] = types.ScheduleEntry{
			Weekday:     time.Weekday(weekday),
			StartMinute: start,
			EndMinute:   end,
			Enabled:     enabled == 1,
		}
	}
	return rows.Err()
}

func (s *MemberStore) Create(ctx context.Context, m *types.Member) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	var packageEnd any
	if m.PackageEndDate != nil {
		packageEnd = m.PackageEndDate.UTC().UnixMilli()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO members(
  member_id, device_user_code, display_name,
  access_active, fingerprint_enrolled,
  package_end_ms, pending_amount,
  access_attempts, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?);`,
			m.ID, m.DeviceUserCode, m.DisplayName,
			boolInt(m.AccessActive), boolInt(m.FingerprintEnrolled),
			packageEnd, m.PendingAmount,
			m.CreatedAt.UnixMilli(), m.UpdatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		return insertScheduleTx(ctx, tx, m.ID, m.Schedule)
	})
}

func (s *MemberStore) Delete(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE member_id = ?;", id); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		return nil
	})
}

func (s *MemberStore) ReplaceSchedule(ctx context.Context, id string, sched types.Schedule) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM member_schedules WHERE member_id = ?;", id); err != nil {
			return fmt.Errorf("clear schedule: %w", err)
		}
		return insertScheduleTx(ctx, tx, id, sched)
	})
}

func insertScheduleTx(ctx context.Context, tx *sql.Tx, id string, sched types.Schedule) error {
	for _, e := range sched {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO member_schedules(member_id, weekday, start_min, end_min, enabled)
VALUES (?, ?, ?, ?, ?);`,
			id, int(e.Weekday), e.StartMinute, e.EndMinute, boolInt(e.Enabled),
		); err != nil {
			return fmt.Errorf("insert schedule day %d: %w", int(e.Weekday), err)
		}
	}
	return nil
}

func (s *MemberStore) SetAccessActive(ctx context.Context, id string, active bool) error {
	return s.setFlag(ctx, id, "access_active", active)
}

func (s *MemberStore) SetFingerprintEnrolled(ctx context.Context, id string, enrolled bool) error {
	return s.setFlag(ctx, id, "fingerprint_enrolled", enrolled)
}

func (s *MemberStore) setFlag(ctx context.Context, id, column string, v bool) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE members SET "+column+" = ?, updated_at_ms = ? WHERE member_id = ?;",
			boolInt(v), time.Now().UTC().UnixMilli(), id); err != nil {
			return fmt.Errorf("update %s: %w", column, err)
		}
		return nil
	})
}

func (s *MemberStore) IncrementAccessAttempt(ctx context.Context, id string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE members
SET access_attempts = access_attempts + 1,
    updated_at_ms   = ?
WHERE member_id = ?;`, at.UTC().UnixMilli(), id); err != nil {
			return fmt.Errorf("increment attempts: %w", err)
		}
		return nil
	})
}

// MarkAccessGranted only ever moves last_access_ms forward.
func (s *MemberStore) MarkAccessGranted(ctx context.Context, id string, at time.Time) error {
	ms := at.UTC().UnixMilli()
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE members
SET last_access_ms = MAX(COALESCE(last_access_ms, 0), ?),
    updated_at_ms  = ?
WHERE member_id = ?;`, ms, ms, id); err != nil {
			return fmt.Errorf("mark access granted: %w", err)
		}
		return nil
	})
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
