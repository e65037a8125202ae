package device

import (
	"encoding/binary"

	"errors"

	"github.com/gymgate/server/internal/gymgate/types"
)

// Wire framing observed on the terminal's TCP port: a fixed 4-byte header,
// a 4-byte big-endian command word, the ASCII payload fields, and a 2-byte
// footer.  There is no length prefix and no checksum; the device delimits
// fields with its own protocol knowledge.
var (
	frameHeader = []byte{0x50, 0x50, 0x82, 0x7D}
	frameFooter = []byte{0x00, 0x00}
)

const (
	cmdAddUser           uint32 = 0x01
	cmdEnrollFingerprint uint32 = 0x50

	// Delete and schedule-set reuse the same framing.  Their command words
	// are assumed, not observed on a live device.
	// TODO: confirm cmdDeleteUser/cmdSetSchedule against vendor protocol docs.
	cmdDeleteUser  uint32 = 0x02
	cmdSetSchedule uint32 = 0x03
)

var (
	ErrInvalidDeviceCode  = errors.New("device user code must be non-empty and numeric")
	ErrInvalidFingerIndex = errors.New("finger index must be in 0..9")
)

func validDeviceCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func encodeFrame(cmd uint32, fields ...[]byte) []byte {
	size := len(frameHeader) + 4 + len(frameFooter)
	for _, f := range fields {
		size += len(f)
	}
	out := make([]byte, 0, size)
	out = append(out, frameHeader...)
	out = binary.BigEndian.AppendUint32(out, cmd)
	for _, f := range fields {
		out = append(out, f...)
	}
	return append(out, frameFooter...)
}

// EncodeAddUser builds the add-user command packet.  Re-sending the same
// device code overwrites the existing device-side user, so the command is
// idempotent.
func EncodeAddUser(deviceUserCode, displayName string) ([]byte, error) {
	if !validDeviceCode(deviceUserCode) {
		return nil, ErrInvalidDeviceCode
	}
	return encodeFrame(cmdAddUser, []byte(deviceUserCode), []byte(displayName)), nil
}

// EncodeEnrollFingerprint builds the enroll command packet.  The device
// switches to its scanning page and prompts for the given finger.
func EncodeEnrollFingerprint(deviceUserCode string, fingerIndex int) ([]byte, error) {
	if !validDeviceCode(deviceUserCode) {
		return nil, ErrInvalidDeviceCode
	}
	if fingerIndex < 0 || fingerIndex > 9 {
		return nil, ErrInvalidFingerIndex
	}
	return encodeFrame(cmdEnrollFingerprint, []byte(deviceUserCode), []byte{byte(fingerIndex)}), nil
}

// EncodeDeleteUser builds the delete-user command packet.
func EncodeDeleteUser(deviceUserCode string) ([]byte, error) {
	if !validDeviceCode(deviceUserCode) {
		return nil, ErrInvalidDeviceCode
	}
	return encodeFrame(cmdDeleteUser, []byte(deviceUserCode)), nil
}

// EncodeSetSchedule builds the schedule-set command packet: the device code
// followed by five bytes per weekday (weekday, start hour, start minute,
// end hour, end minute) and an enabled flag byte.
func EncodeSetSchedule(deviceUserCode string, sched types.Schedule) ([]byte, error) {
	if !validDeviceCode(deviceUserCode) {
		return nil, ErrInvalidDeviceCode
	}
	days := make([]byte, 0, 7*6)
	for _, e := range sched {
		enabled := byte(0)
		if e.Enabled {
			enabled = 1
		}
		days = append(days,
			byte(e.Weekday),
			byte(e.StartMinute/60), byte(e.StartMinute%60),
			byte(e.EndMinute/60), byte(e.EndMinute%60),
			enabled,
		)
	}
	return encodeFrame(cmdSetSchedule, []byte(deviceUserCode), days), nil
}

// IsAcknowledged reports whether a device response counts as an
// acknowledgement.  The terminal's ACK/NACK structure is not reliably
// distinguishable, so any non-empty response within the timeout window is
// treated as "device is alive and accepted the write" — nothing more.
func IsAcknowledged(resp []byte) bool {
	return len(resp) > 0
}
