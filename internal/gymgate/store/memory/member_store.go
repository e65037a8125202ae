package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gymgate/server/internal/gymgate/types"
)

// MemberStore is an in-memory implementation for tests and dev runs.
type MemberStore struct {
	mu      sync.RWMutex
	byID    map[string]*types.Member
	byCode  map[string]string // device code -> member id
}

func NewMemberStore() *MemberStore {
	return &MemberStore{
		byID:   make(map[string]*types.Member),
		byCode: make(map[string]string),
	}
}

func cloneMember(m *types.Member) *types.Member {
	out := *m
	if m.PackageEndDate != nil {
		t := *m.PackageEndDate
		out.PackageEndDate = &t
	}
	if m.LastAccessAt != nil {
		t := *m.LastAccessAt
		out.LastAccessAt = &t
	}
	return &out
}

func (s *MemberStore) GetByID(_ context.Context, id string) (*types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneMember(m), nil
}

func (s *MemberStore) GetByDeviceCode(_ context.Context, code string) (*types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, nil
	}
	return cloneMember(s.byID[id]), nil
}

func (s *MemberStore) Create(_ context.Context, m *types.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[m.ID]; exists {
		return fmt.Errorf("member %s already exists", m.ID)
	}
	if _, exists := s.byCode[m.DeviceUserCode]; exists {
		return fmt.Errorf("device code %s already assigned", m.DeviceUserCode)
	}
	cp := cloneMember(m)
	s.byID[cp.ID] = cp
	s.byCode[cp.DeviceUserCode] = cp.ID
	return nil
}

func (s *MemberStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byID[id]; ok {
		delete(s.byCode, m.DeviceUserCode)
		delete(s.byID, id)
	}
	return nil
}

func (s *MemberStore) ReplaceSchedule(_ context.Context, id string, sched types.Schedule) error {
	return s.update(id, func(m *types.Member) {
		m.Schedule = sched
	})
}

func (s *MemberStore) SetAccessActive(_ context.Context, id string, active bool) error {
	return s.update(id, func(m *types.Member) {
		m.AccessActive = active
	})
}

func (s *MemberStore) SetFingerprintEnrolled(_ context.Context, id string, enrolled bool) error {
	return s.update(id, func(m *types.Member) {
		m.FingerprintEnrolled = enrolled
	})
}

func (s *MemberStore) IncrementAccessAttempt(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(m *types.Member) {
		m.AccessAttempts++
		m.UpdatedAt = at
	})
}

func (s *MemberStore) MarkAccessGranted(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(m *types.Member) {
		if m.LastAccessAt == nil || at.After(*m.LastAccessAt) {
			t := at
			m.LastAccessAt = &t
		}
		m.UpdatedAt = at
	})
}

func (s *MemberStore) update(id string, fn func(*types.Member)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("member %s not found", id)
	}
	fn(m)
	return nil
}
