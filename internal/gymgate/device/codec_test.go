package device

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gymgate/server/internal/gymgate/types"
)

func TestEncodeAddUserGolden(t *testing.T) {
	got, err := EncodeAddUser("90001001", "Jane")
	if err != nil {
		t.Fatalf("EncodeAddUser: %v", err)
	}

	want := []byte{
		0x50, 0x50, 0x82, 0x7D, // header
		0x00, 0x00, 0x00, 0x01, // add-user command word
		'9', '0', '0', '0', '1', '0', '0', '1',
		'J', 'a', 'n', 'e',
		0x00, 0x00, // footer
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch\n got:  % x\n want: % x", got, want)
	}
}

func TestEncodeEnrollFingerprintGolden(t *testing.T) {
	got, err := EncodeEnrollFingerprint("42", 3)
	if err != nil {
		t.Fatalf("EncodeEnrollFingerprint: %v", err)
	}

	want := []byte{
		0x50, 0x50, 0x82, 0x7D,
		0x00, 0x00, 0x00, 0x50, // enroll command word
		'4', '2',
		0x03,
		0x00, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch\n got:  % x\n want: % x", got, want)
	}
}

func TestEncodeDeleteUserFraming(t *testing.T) {
	got, err := EncodeDeleteUser("7")
	if err != nil {
		t.Fatalf("EncodeDeleteUser: %v", err)
	}
	if !bytes.HasPrefix(got, frameHeader) {
		t.Errorf("missing header: % x", got)
	}
	if !bytes.HasSuffix(got, frameFooter) {
		t.Errorf("missing footer: % x", got)
	}
}

func TestEncodeSetScheduleLength(t *testing.T) {
	got, err := EncodeSetSchedule("12345", types.DefaultSchedule())
	if err != nil {
		t.Fatalf("EncodeSetSchedule: %v", err)
	}
	// header + command + code + 7 days x 6 bytes + footer
	want := 4 + 4 + 5 + 7*6 + 2
	if len(got) != want {
		t.Fatalf("frame length = %d, want %d", len(got), want)
	}
}

func TestEncodeRejectsBadDeviceCodes(t *testing.T) {
	for _, code := range []string{"", "abc", "12a", "12 3"} {
		if _, err := EncodeAddUser(code, "x"); !errors.Is(err, ErrInvalidDeviceCode) {
			t.Errorf("EncodeAddUser(%q) err = %v, want ErrInvalidDeviceCode", code, err)
		}
	}
}

func TestEncodeEnrollRejectsBadFinger(t *testing.T) {
	for _, idx := range []int{-1, 10, 42} {
		if _, err := EncodeEnrollFingerprint("1", idx); !errors.Is(err, ErrInvalidFingerIndex) {
			t.Errorf("finger %d err = %v, want ErrInvalidFingerIndex", idx, err)
		}
	}
}

func TestIsAcknowledged(t *testing.T) {
	if IsAcknowledged(nil) {
		t.Error("empty response must not count as an ack")
	}
	if !IsAcknowledged([]byte{0xFF}) {
		t.Error("any non-empty response counts as an ack")
	}
}
