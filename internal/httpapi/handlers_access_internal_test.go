package httpapi

import (
	"testing"
	"time"
)

func TestParsePunchLineFormats(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	want := time.Date(2026, time.March, 2, 12, 30, 45, 0, time.UTC)

	cases := []string{
		"1001\t2026-03-02 12:30:45\t1\t0",
		"1001,2026-03-02 12:30:45,1,0",
		"1001 2026-03-02 12:30:45",
		"1001\t20260302123045",
	}
	for _, line := range cases {
		pin, at, ok := parsePunchLine(line, now)
		if !ok {
			t.Errorf("parsePunchLine(%q) not ok", line)
			continue
		}
		if pin != "1001" {
			t.Errorf("parsePunchLine(%q) pin = %q", line, pin)
		}
		if !at.Equal(want) {
			t.Errorf("parsePunchLine(%q) time = %v, want %v", line, at, want)
		}
	}
}

func TestParsePunchLinePinOnly(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	pin, at, ok := parsePunchLine("1001", now)
	if !ok || pin != "1001" {
		t.Fatalf("pin-only line: pin=%q ok=%v", pin, ok)
	}
	if !at.Equal(now) {
		t.Errorf("time = %v, want arrival stamp %v", at, now)
	}
}

func TestScanRequestOccurredAt(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	if got := (scanRequest{}).occurredAt(now); !got.Equal(now) {
		t.Errorf("empty timestamp = %v, want now", got)
	}
	if got := (scanRequest{Timestamp: "garbage"}).occurredAt(now); !got.Equal(now) {
		t.Errorf("bad timestamp = %v, want now", got)
	}

	want := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	if got := (scanRequest{TimeAlt: "2026-03-02 12:00:00"}).occurredAt(now); !got.Equal(want) {
		t.Errorf("alt key timestamp = %v, want %v", got, want)
	}
}
