package types_test

import (
	"testing"
	"time"

	"github.com/gymgate/server/internal/gymgate/types"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"06:00", 360, false},
		{"22:00", 1320, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{" 08:30 ", 510, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := types.ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseClock(%q) = (%d, %v), want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, v := range []string{"06:00", "22:00", "00:05", "23:59"} {
		m, err := types.ParseClock(v)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", v, err)
		}
		if got := types.FormatClock(m); got != v {
			t.Errorf("FormatClock(ParseClock(%q)) = %q", v, got)
		}
	}
}

func TestDefaultSchedule(t *testing.T) {
	s := types.DefaultSchedule()

	mon := s.Entry(time.Monday)
	if !mon.Enabled || mon.StartMinute != 6*60 || mon.EndMinute != 22*60 {
		t.Errorf("monday = %+v", mon)
	}
	sun := s.Entry(time.Sunday)
	if !sun.Enabled || sun.StartMinute != 8*60 || sun.EndMinute != 20*60 {
		t.Errorf("sunday = %+v", sun)
	}

	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Entry(d).Weekday != d {
			t.Errorf("entry %d carries weekday %v", d, s.Entry(d).Weekday)
		}
	}
}
