package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	dbpkg "github.com/gymgate/server/internal/db"
	"github.com/gymgate/server/internal/gymgate/store/sqlite"
	"github.com/gymgate/server/internal/gymgate/types"
)

func openTestDB(t *testing.T) (*sql.DB, *dbpkg.Worker) {
	t.Helper()

	database, err := dbpkg.Open(context.Background(), dbpkg.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Env:  "dev",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	writer := dbpkg.NewWorker(database)
	t.Cleanup(writer.Close)
	return database, writer
}

func testMember(code string) *types.Member {
	end := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &types.Member{
		ID:             "m-" + code,
		DeviceUserCode: code,
		DisplayName:    "Jane Doe",
		AccessActive:   true,
		PackageEndDate: &end,
		PendingAmount:  12.5,
		Schedule:       types.DefaultSchedule(),
	}
}

func TestMemberStoreRoundTrip(t *testing.T) {
	database, writer := openTestDB(t)
	members := sqlite.NewMemberStore(database, writer)
	ctx := context.Background()

	m := testMember("1001")
	if err := members.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := members.GetByDeviceCode(ctx, "1001")
	if err != nil {
		t.Fatalf("GetByDeviceCode: %v", err)
	}
	if got == nil {
		t.Fatal("member not found after create")
	}
	if got.ID != m.ID || got.DisplayName != "Jane Doe" || !got.AccessActive {
		t.Errorf("got = %+v", got)
	}
	if got.PackageEndDate == nil || !got.PackageEndDate.Equal(*m.PackageEndDate) {
		t.Errorf("package end = %v", got.PackageEndDate)
	}
	if got.PendingAmount != 12.5 {
		t.Errorf("pending = %v", got.PendingAmount)
	}
	mon := got.Schedule.Entry(time.Monday)
	if !mon.Enabled || mon.StartMinute != 6*60 || mon.EndMinute != 22*60 {
		t.Errorf("monday schedule = %+v", mon)
	}

	if absent, err := members.GetByDeviceCode(ctx, "9999"); err != nil || absent != nil {
		t.Errorf("unknown code = (%v, %v), want (nil, nil)", absent, err)
	}
}

func TestMemberStoreReplaceSchedule(t *testing.T) {
	database, writer := openTestDB(t)
	members := sqlite.NewMemberStore(database, writer)
	ctx := context.Background()

	m := testMember("1002")
	if err := members.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var sched types.Schedule
	for d := time.Sunday; d <= time.Saturday; d++ {
		sched[int(d)] = types.ScheduleEntry{Weekday: d}
	}
	sched[int(time.Friday)] = types.ScheduleEntry{
		Weekday: time.Friday, StartMinute: 10 * 60, EndMinute: 14 * 60, Enabled: true,
	}
	if err := members.ReplaceSchedule(ctx, m.ID, sched); err != nil {
		t.Fatalf("ReplaceSchedule: %v", err)
	}

	got, _ := members.GetByID(ctx, m.ID)
	if !got.Schedule.Entry(time.Friday).Enabled {
		t.Error("friday should be enabled")
	}
	if got.Schedule.Entry(time.Monday).Enabled {
		t.Error("monday should be disabled after replace")
	}
}

func TestMemberStoreAttemptAndGrantTracking(t *testing.T) {
	database, writer := openTestDB(t)
	members := sqlite.NewMemberStore(database, writer)
	ctx := context.Background()

	m := testMember("1003")
	if err := members.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	for i := 0; i < 3; i++ {
		if err := members.IncrementAccessAttempt(ctx, m.ID, later); err != nil {
			t.Fatalf("IncrementAccessAttempt: %v", err)
		}
	}
	if err := members.MarkAccessGranted(ctx, m.ID, later); err != nil {
		t.Fatalf("MarkAccessGranted: %v", err)
	}
	// A stale grant must not move the timestamp backwards.
	if err := members.MarkAccessGranted(ctx, m.ID, earlier); err != nil {
		t.Fatalf("MarkAccessGranted: %v", err)
	}

	got, _ := members.GetByID(ctx, m.ID)
	if got.AccessAttempts != 3 {
		t.Errorf("attempts = %d, want 3", got.AccessAttempts)
	}
	if got.LastAccessAt == nil || !got.LastAccessAt.Equal(later) {
		t.Errorf("last access = %v, want %v", got.LastAccessAt, later)
	}
}

func TestMemberStoreDeleteCascadesSchedule(t *testing.T) {
	database, writer := openTestDB(t)
	members := sqlite.NewMemberStore(database, writer)
	ctx := context.Background()

	m := testMember("1004")
	if err := members.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := members.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got, _ := members.GetByID(ctx, m.ID); got != nil {
		t.Fatal("member still present after delete")
	}

	var n int
	if err := database.QueryRow(
		"SELECT COUNT(*) FROM member_schedules WHERE member_id = ?;", m.ID).Scan(&n); err != nil {
		t.Fatalf("count schedules: %v", err)
	}
	if n != 0 {
		t.Errorf("schedule rows = %d, want 0 (cascade)", n)
	}
}

func TestVendorStore(t *testing.T) {
	database, writer := openTestDB(t)
	vendor := sqlite.NewVendorStore(database, writer)
	ctx := context.Background()

	if _, err := database.Exec(
		"INSERT INTO Devices(SerialNumber, DeviceFName) VALUES (?, ?);", "SER123", "Front Door"); err != nil {
		t.Fatalf("seed device: %v", err)
	}

	dev, err := vendor.FindDeviceBySerial(ctx, "SER123")
	if err != nil || dev == nil {
		t.Fatalf("FindDeviceBySerial: (%v, %v)", dev, err)
	}
	if dev.Name != "Front Door" {
		t.Errorf("name = %q", dev.Name)
	}

	if missing, err := vendor.FindDeviceBySerial(ctx, "NOPE"); err != nil || missing != nil {
		t.Errorf("unknown serial = (%v, %v), want (nil, nil)", missing, err)
	}

	created, err := vendor.EnsureDeviceUser(ctx, dev.DeviceID, "90001001")
	if err != nil || !created {
		t.Fatalf("EnsureDeviceUser first = (%v, %v)", created, err)
	}
	created, err = vendor.EnsureDeviceUser(ctx, dev.DeviceID, "90001001")
	if err != nil || created {
		t.Fatalf("EnsureDeviceUser second = (%v, %v), want no-op", created, err)
	}

	if _, err := vendor.EnsureDeviceUser(ctx, dev.DeviceID, "not-numeric"); err == nil {
		t.Error("non-numeric code should fail")
	}
}
