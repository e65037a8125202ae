// Package middleware writes command rows for the vendor's Windows service,
// which polls the DeviceCommands table and executes whatever it finds
// against the physical terminal.  The channel is fire-and-forget: we insert
// Pending rows and never observe consumption or completion.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/store"
)

// CommandKind selects the vendor vocabulary for a queued command.
type CommandKind int

const (
	UploadUsers CommandKind = iota
	DeleteUser
)

// The external service matches on these literal strings; do not edit them.
const (
	commandUploadUsers = "Upload Users To Device"
	commandDeleteUsers = "Delete Users From Device"

	statusPending  = "Pending"
	typeUserSync   = "UserSync"
	typeUserDelete = "UserDelete"
)

// Request describes one command to queue for the middleware.
type Request struct {
	MemberID           string
	DeviceUserCode     string
	DisplayName        string
	Kind               CommandKind
	TargetDeviceSerial string
}

// Adapter is the middleware command-queue channel.
type Adapter struct {
	vendor          store.VendorStore
	defaultDeviceID int64
	logger          zerolog.Logger
}

func NewAdapter(vendor store.VendorStore, defaultDeviceID int64, logger zerolog.Logger) *Adapter {
	if defaultDeviceID <= 0 {
		defaultDeviceID = 1
	}
	return &Adapter{
		vendor:          vendor,
		defaultDeviceID: defaultDeviceID,
		logger:          logger.With().Str("component", "middleware-queue").Logger(),
	}
}

// Enqueue writes one DeviceCommands row (and, for uploads, the DeviceUsers
// membership row if this is the first sync for the member/device pair).
// Returns as soon as the insert lands; any failure is reported to the
// caller as a plain error for the orchestrator to absorb.
func (a *Adapter) Enqueue(ctx context.Context, req Request) error {
	deviceID := a.defaultDeviceID
	serial := req.TargetDeviceSerial

	dev, err := a.vendor.FindDeviceBySerial(ctx, req.TargetDeviceSerial)
	if err != nil {
		return fmt.Errorf("device lookup: %w", err)
	}
	if dev != nil {
		deviceID = dev.DeviceID
		serial = dev.SerialNumber
	} else {
		a.logger.Warn().
			Str("serial", req.TargetDeviceSerial).
			Int64("fallback_device_id", deviceID).
			Msg("target device not registered, using default device id")
	}

	if req.Kind == UploadUsers {
		created, err := a.vendor.EnsureDeviceUser(ctx, deviceID, req.DeviceUserCode)
		if err != nil {
			return fmt.Errorf("ensure membership: %w", err)
		}
		if created {
			a.logger.Info().
				Str("device_user_code", req.DeviceUserCode).
				Int64("device_id", deviceID).
				Msg("added member to DeviceUsers")
		}
	}

	rec := store.CommandRecord{
		SerialNumber: serial,
		Status:       statusPending,
		CreatedAt:    time.Now().UTC(),
	}
	switch req.Kind {
	case DeleteUser:
		rec.Title = fmt.Sprintf("Delete User %s", req.DeviceUserCode)
		rec.DeviceCommand = commandDeleteUsers
		rec.Type = typeUserDelete
	default:
		rec.Title = fmt.Sprintf("Sync User %s (%s)", req.DeviceUserCode, req.DisplayName)
		rec.DeviceCommand = commandUploadUsers
		rec.Type = typeUserSync
	}

	if err := a.vendor.InsertCommand(ctx, rec); err != nil {
		return fmt.Errorf("queue command: %w", err)
	}

	a.logger.Info().
		Str("command", rec.DeviceCommand).
		Str("serial", serial).
		Msg("middleware command queued")
	return nil
}
