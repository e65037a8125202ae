package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleEntry is one weekday's access window.  Times are minutes since
// midnight in local wall-clock, no timezone.
type ScheduleEntry struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Enabled     bool
}

// Schedule holds exactly one entry per weekday, indexed by time.Weekday
// (Sunday = 0).  Updates replace the whole schedule; per-day edits are not
// supported.
type Schedule [7]ScheduleEntry

// Entry returns the schedule entry for the given weekday.
func (s Schedule) Entry(d time.Weekday) ScheduleEntry {
	return s[int(d)]
}

// DefaultSchedule is the schedule assigned at registration time:
// 06:00-22:00 on weekdays, 08:00-20:00 on weekends, all days enabled.
func DefaultSchedule() Schedule {
	var s Schedule
	for d := time.Sunday; d <= time.Saturday; d++ {
		start, end := 6*60, 22*60
		if d == time.Sunday || d == time.Saturday {
			start, end = 8*60, 20*60
		}
		s[int(d)] = ScheduleEntry{Weekday: d, StartMinute: start, EndMinute: end, Enabled: true}
	}
	return s
}

// ParseClock parses an "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(v string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Member is the access-control view of a gym client: the device identity
// pair, the mutable access state, and the weekly schedule.  Billing and
// profile data live outside this subsystem.
type Member struct {
	ID             string // owning-system primary key (GUID)
	DeviceUserCode string // the device's user namespace; assigned once, immutable
	DisplayName    string

	AccessActive        bool
	FingerprintEnrolled bool
	PackageEndDate      *time.Time
	PendingAmount       float64

	LastAccessAt   *time.Time
	AccessAttempts int

	Schedule Schedule

	CreatedAt time.Time
	UpdatedAt time.Time
}
