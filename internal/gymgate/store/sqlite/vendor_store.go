package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	dbpkg "github.com/gymgate/server/internal/db"
	"github.com/gymgate/server/internal/gymgate/store"
)

// VendorStore reads and writes the middleware tables (Devices, DeviceUsers,
// DeviceCommands).  Column names follow the vendor schema, not ours.
type VendorStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewVendorStore(db *sql.DB, writer *dbpkg.Worker) *VendorStore {
	return &VendorStore{db: db, writer: writer}
}

func (s *VendorStore) FindDeviceBySerial(ctx context.Context, serial string) (*store.VendorDevice, error) {
	var (
		d            store.VendorDevice
		fname, sname sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT DeviceId, SerialNumber, DeviceFName, DeviceSName
FROM Devices
WHERE SerialNumber = ?;`, serial).Scan(&d.DeviceID, &d.SerialNumber, &fname, &sname)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("device lookup: %w", err)
	}
	switch {
	case fname.Valid && fname.String != "":
		d.Name = fname.String
	case sname.Valid:
		d.Name = sname.String
	}
	return &d, nil
}

// EnsureDeviceUser mirrors the middleware's own membership convention:
// the EmployeeId column carries the numeric device user code, GroupId 1.
func (s *VendorStore) EnsureDeviceUser(ctx context.Context, deviceID int64, deviceUserCode string) (bool, error) {
	employeeID, err := strconv.ParseInt(deviceUserCode, 10, 64)
	if err != nil {
		return false, fmt.Errorf("device user code %q is not numeric: %w", deviceUserCode, err)
	}

	created := false
	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO DeviceUsers(DeviceId, EmployeeId, GroupId, CreatedDate)
VALUES (?, ?, 1, ?);`, deviceID, employeeID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert DeviceUsers: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DeviceUsers rows affected: %w", err)
		}
		created = n > 0
		return nil
	})
	return created, err
}

func (s *VendorStore) InsertCommand(ctx context.Context, rec store.CommandRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO DeviceCommands (Title, DeviceCommand, SerialNumber, Status, Type, CreationDate)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.Title, rec.DeviceCommand, rec.SerialNumber,
			rec.Status, rec.Type, rec.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert DeviceCommands: %w", err)
		}
		return nil
	})
}
