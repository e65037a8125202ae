package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// DeviceSerial pre-registers the target terminal in the vendor Devices
	// table so middleware commands resolve without a live middleware install.
	DeviceSerial string
}

// SeedDev inserts a starter terminal and one enrolled member so a dev
// environment can exercise scans and syncs immediately.  All inserts are
// idempotent.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	serial := opt.DeviceSerial
	if serial == "" {
		serial = "DEV0000000001"
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO Devices(SerialNumber, DeviceFName, DeviceSName)
VALUES (?, 'Main Terminal', 'dev');`, serial); err != nil {
		return fmt.Errorf("seed device: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO members(
  member_id, device_user_code, display_name,
  access_active, fingerprint_enrolled, pending_amount,
  access_attempts, created_at_ms, updated_at_ms
) VALUES ('00000000-0000-4000-8000-000000000001', '90001001', 'Dev Member',
  1, 1, 0, 0, ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed member: %w", err)
	}

	for weekday := 0; weekday < 7; weekday++ {
		start, end := 6*60, 22*60
		if weekday == 0 || weekday == 6 {
			start, end = 8*60, 20*60
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO member_schedules(member_id, weekday, start_min, end_min, enabled)
VALUES ('00000000-0000-4000-8000-000000000001', ?, ?, ?, 1);`,
			weekday, start, end); err != nil {
			return fmt.Errorf("seed schedule day %d: %w", weekday, err)
		}
	}

	return nil
}
