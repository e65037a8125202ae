package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/config"
	"github.com/gymgate/server/internal/gymgate/middleware"
	"github.com/gymgate/server/internal/gymgate/service"
	"github.com/gymgate/server/internal/gymgate/types"
)

// fakeDevice counts calls and fails until the configured attempt.
type fakeDevice struct {
	registerCalls int
	deleteCalls   int
	enrollCalls   int
	scheduleCalls int

	// succeedAfter N means the first N-1 calls fail.  0 = always fail.
	succeedAfter int
}

func (d *fakeDevice) result(calls int) error {
	if d.succeedAfter > 0 && calls >= d.succeedAfter {
		return nil
	}
	return errors.New("connection refused")
}

func (d *fakeDevice) RegisterUser(context.Context, string, string) error {
	d.registerCalls++
	return d.result(d.registerCalls)
}

func (d *fakeDevice) DeleteUser(context.Context, string) error {
	d.deleteCalls++
	return d.result(d.deleteCalls)
}

func (d *fakeDevice) EnrollFingerprint(context.Context, string, int) error {
	d.enrollCalls++
	return d.result(d.enrollCalls)
}

func (d *fakeDevice) SetSchedule(context.Context, string, types.Schedule) error {
	d.scheduleCalls++
	return d.result(d.scheduleCalls)
}

type fakeQueue struct {
	requests []middleware.Request
	fail     bool
}

func (q *fakeQueue) Enqueue(_ context.Context, req middleware.Request) error {
	if q.fail {
		return errors.New("vendor table locked")
	}
	q.requests = append(q.requests, req)
	return nil
}

func newSync(dev *fakeDevice, q *fakeQueue, mode config.OperatingMode) *service.SyncService {
	return service.NewSyncService(dev, q, service.SyncConfig{
		Mode:               mode,
		TargetDeviceSerial: "SER123",
		MaxAttempts:        3,
		RetryBackoff:       0, // tests don't sit through real delays
	}, nil, zerolog.Nop())
}

func TestSyncCreateBothChannels(t *testing.T) {
	dev := &fakeDevice{succeedAfter: 1}
	q := &fakeQueue{}
	res := newSync(dev, q, config.ModeDual).SyncCreate(context.Background(), newTestMember("1001"))

	if !res.TransportOK || !res.Queued {
		t.Fatalf("result = %+v", res)
	}
	if !res.Succeeded() {
		t.Error("Succeeded() should be true")
	}
	if dev.registerCalls != 1 {
		t.Errorf("register calls = %d, want 1 (short-circuit on success)", dev.registerCalls)
	}
	if len(q.requests) != 1 || q.requests[0].Kind != middleware.UploadUsers {
		t.Errorf("queued requests = %+v", q.requests)
	}
	if !strings.Contains(res.Message, "TCP") || !strings.Contains(res.Message, "middleware") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestSyncCreateRetriesThenGivesUp(t *testing.T) {
	dev := &fakeDevice{} // always fails
	q := &fakeQueue{}
	res := newSync(dev, q, config.ModeDual).SyncCreate(context.Background(), newTestMember("1001"))

	if dev.registerCalls != 3 {
		t.Errorf("register calls = %d, want 3", dev.registerCalls)
	}
	if res.TransportOK {
		t.Error("transport should have failed")
	}
	if !res.Queued || !res.Succeeded() {
		t.Errorf("queue fallback should still succeed: %+v", res)
	}
}

func TestSyncCreateSucceedsOnSecondAttempt(t *testing.T) {
	dev := &fakeDevice{succeedAfter: 2}
	res := newSync(dev, &fakeQueue{}, config.ModeDual).SyncCreate(context.Background(), newTestMember("1001"))

	if dev.registerCalls != 2 {
		t.Errorf("register calls = %d, want 2", dev.registerCalls)
	}
	if !res.TransportOK {
		t.Error("second attempt should have landed")
	}
}

func TestSyncCreateBothChannelsDown(t *testing.T) {
	dev := &fakeDevice{}
	q := &fakeQueue{fail: true}
	res := newSync(dev, q, config.ModeDual).SyncCreate(context.Background(), newTestMember("1001"))

	if res.Succeeded() {
		t.Fatalf("nothing succeeded but result says otherwise: %+v", res)
	}
	if !strings.Contains(res.Message, "Device unreachable and middleware queue unavailable") {
		t.Errorf("message = %q", res.Message)
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Errorf("message should carry the last transport error: %q", res.Message)
	}
}

func TestSyncDeleteUsesDeleteVocabulary(t *testing.T) {
	dev := &fakeDevice{succeedAfter: 1}
	q := &fakeQueue{}
	res := newSync(dev, q, config.ModeDual).SyncDelete(context.Background(), newTestMember("1001"))

	if dev.deleteCalls != 1 || dev.registerCalls != 0 {
		t.Errorf("calls: delete=%d register=%d", dev.deleteCalls, dev.registerCalls)
	}
	if len(q.requests) != 1 || q.requests[0].Kind != middleware.DeleteUser {
		t.Errorf("queued requests = %+v", q.requests)
	}
	if !res.Succeeded() {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncModeGating(t *testing.T) {
	t.Run("transport-only skips queue", func(t *testing.T) {
		dev := &fakeDevice{succeedAfter: 1}
		q := &fakeQueue{}
		res := newSync(dev, q, config.ModeTransportOnly).SyncCreate(context.Background(), newTestMember("1001"))
		if len(q.requests) != 0 {
			t.Errorf("queue should be untouched: %+v", q.requests)
		}
		if !res.TransportOK || res.Queued {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("queue-only skips device", func(t *testing.T) {
		dev := &fakeDevice{succeedAfter: 1}
		q := &fakeQueue{}
		res := newSync(dev, q, config.ModeQueueOnly).SyncCreate(context.Background(), newTestMember("1001"))
		if dev.registerCalls != 0 {
			t.Errorf("device should be untouched, calls = %d", dev.registerCalls)
		}
		if res.TransportOK || !res.Queued {
			t.Errorf("result = %+v", res)
		}
	})
}

func TestSyncScheduleUpdate(t *testing.T) {
	dev := &fakeDevice{succeedAfter: 1}
	q := &fakeQueue{}
	ok := newSync(dev, q, config.ModeDual).SyncScheduleUpdate(context.Background(), newTestMember("1001"), types.DefaultSchedule())
	if !ok {
		t.Fatal("expected success")
	}
	if dev.scheduleCalls != 1 {
		t.Errorf("schedule calls = %d", dev.scheduleCalls)
	}
	// The middleware has no schedule command; the queue side re-uploads.
	if len(q.requests) != 1 || q.requests[0].Kind != middleware.UploadUsers {
		t.Errorf("queued requests = %+v", q.requests)
	}
}

func TestEnrollFingerprint(t *testing.T) {
	t.Run("device reachable", func(t *testing.T) {
		dev := &fakeDevice{succeedAfter: 1}
		ok, msg := newSync(dev, &fakeQueue{}, config.ModeDual).EnrollFingerprint(context.Background(), newTestMember("1001"), 0)
		if !ok {
			t.Fatalf("enroll failed: %s", msg)
		}
	})

	t.Run("device down falls back to manual instructions", func(t *testing.T) {
		dev := &fakeDevice{}
		m := newTestMember("1001")
		ok, msg := newSync(dev, &fakeQueue{}, config.ModeDual).EnrollFingerprint(context.Background(), m, 0)
		if ok {
			t.Fatal("expected failure")
		}
		if !strings.Contains(msg, "enroll manually") || !strings.Contains(msg, m.DeviceUserCode) {
			t.Errorf("message = %q", msg)
		}
	})
}
