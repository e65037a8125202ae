package store

import (
	"context"
	"time"
)

// VendorDevice is a row in the middleware's Devices table.  The schema is
// owned by the vendor software; this system only reads it.
type VendorDevice struct {
	DeviceID     int64
	SerialNumber string
	Name         string
}

// CommandRecord is one row for the middleware's DeviceCommands table.  The
// external Windows service polls that table and matches on the literal
// DeviceCommand string, so the vocabulary is load-bearing.
type CommandRecord struct {
	Title         string
	DeviceCommand string
	SerialNumber  string
	Status        string
	Type          string
	CreatedAt     time.Time
}

// VendorStore covers the three middleware tables this system touches.
// Commands are append-only from our side: we write Pending rows and never
// read status back; the terminal states belong to the external consumer.
type VendorStore interface {
	// FindDeviceBySerial returns (nil, nil) when the serial is unknown.
	FindDeviceBySerial(ctx context.Context, serial string) (*VendorDevice, error)

	// EnsureDeviceUser creates the DeviceUsers membership row linking a
	// device user code to a device, if it does not already exist.
	// Reports whether a row was created.
	EnsureDeviceUser(ctx context.Context, deviceID int64, deviceUserCode string) (bool, error)

	InsertCommand(ctx context.Context, rec CommandRecord) error
}
