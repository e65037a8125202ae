package memory

import (
	"context"
	"sync"

	"github.com/gymgate/server/internal/gymgate/store"
)

type membershipKey struct {
	deviceID int64
	code     string
}

// VendorStore is an in-memory stand-in for the middleware tables.
type VendorStore struct {
	mu          sync.Mutex
	devices     []store.VendorDevice
	memberships map[membershipKey]struct{}
	commands    []store.CommandRecord
}

func NewVendorStore(devices ...store.VendorDevice) *VendorStore {
	return &VendorStore{
		devices:     devices,
		memberships: make(map[membershipKey]struct{}),
	}
}

func (s *VendorStore) FindDeviceBySerial(_ context.Context, serial string) (*store.VendorDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.SerialNumber == serial {
			cp := d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *VendorStore) EnsureDeviceUser(_ context.Context, deviceID int64, deviceUserCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := membershipKey{deviceID: deviceID, code: deviceUserCode}
	if _, ok := s.memberships[k]; ok {
		return false, nil
	}
	s.memberships[k] = struct{}{}
	return true, nil
}

func (s *VendorStore) InsertCommand(_ context.Context, rec store.CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, rec)
	return nil
}

// Commands returns a copy of all queued command rows.  Test-only helper.
func (s *VendorStore) Commands() []store.CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.CommandRecord, len(s.commands))
	copy(out, s.commands)
	return out
}

// MembershipCount reports how many DeviceUsers rows exist.  Test-only helper.
func (s *VendorStore) MembershipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memberships)
}
