package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/config"
	"github.com/gymgate/server/internal/gymgate/middleware"
	"github.com/gymgate/server/internal/gymgate/types"
	"github.com/gymgate/server/internal/metrics"
)

// DeviceClient is the direct TCP channel as the orchestrator sees it.
type DeviceClient interface {
	RegisterUser(ctx context.Context, deviceUserCode, displayName string) error
	DeleteUser(ctx context.Context, deviceUserCode string) error
	EnrollFingerprint(ctx context.Context, deviceUserCode string, fingerIndex int) error
	SetSchedule(ctx context.Context, deviceUserCode string, sched types.Schedule) error
}

// CommandQueue is the middleware channel.
type CommandQueue interface {
	Enqueue(ctx context.Context, req middleware.Request) error
}

// SyncConfig carries the orchestration knobs.  Attempts and backoff are
// injectable so tests don't sit through real delays.
type SyncConfig struct {
	Mode               config.OperatingMode
	TargetDeviceSerial string
	MaxAttempts        int
	RetryBackoff       time.Duration
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.Mode == "" {
		c.Mode = config.ModeDual
	}
	return c
}

// SyncService propagates member operations to the terminal through both
// channels and reports a combined verdict.  It never returns an error:
// the owning member record must persist regardless of device reachability,
// so every channel failure is absorbed into the SyncResult.
type SyncService struct {
	device  DeviceClient
	queue   CommandQueue
	cfg     SyncConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewSyncService(device DeviceClient, queue CommandQueue, cfg SyncConfig, m *metrics.Metrics, logger zerolog.Logger) *SyncService {
	return &SyncService{
		device:  device,
		queue:   queue,
		cfg:     cfg.withDefaults(),
		metrics: m,
		logger:  logger.With().Str("component", "sync").Logger(),
	}
}

// SyncCreate pushes a new or re-registered member to the terminal.
// Calling it twice for the same member is safe: the queue's membership row
// is insert-if-absent and re-sending add-user overwrites on the device.
func (s *SyncService) SyncCreate(ctx context.Context, m *types.Member) types.SyncResult {
	queued := s.enqueue(ctx, m, middleware.UploadUsers)
	transportOK, lastMsg := s.attemptTransport(ctx, func(ctx context.Context) error {
		return s.device.RegisterUser(ctx, m.DeviceUserCode, m.DisplayName)
	})
	return s.verdict(transportOK, queued, lastMsg, "synced")
}

// SyncDelete mirrors SyncCreate with the delete vocabulary on both channels.
func (s *SyncService) SyncDelete(ctx context.Context, m *types.Member) types.SyncResult {
	queued := s.enqueue(ctx, m, middleware.DeleteUser)
	transportOK, lastMsg := s.attemptTransport(ctx, func(ctx context.Context) error {
		return s.device.DeleteUser(ctx, m.DeviceUserCode)
	})
	return s.verdict(transportOK, queued, lastMsg, "removed")
}

// SyncScheduleUpdate pushes a replaced weekly schedule.  The middleware
// has no schedule-specific command, so the queue side re-uploads the user.
func (s *SyncService) SyncScheduleUpdate(ctx context.Context, m *types.Member, sched types.Schedule) bool {
	queued := s.enqueue(ctx, m, middleware.UploadUsers)
	transportOK, _ := s.attemptTransport(ctx, func(ctx context.Context) error {
		return s.device.SetSchedule(ctx, m.DeviceUserCode, sched)
	})
	return transportOK || queued
}

// EnrollFingerprint starts the terminal's enrollment flow.  Transport-only:
// the middleware cannot trigger enrollment.  When the device is offline the
// member can still be enrolled manually at the terminal, so the returned
// message carries that fallback.
func (s *SyncService) EnrollFingerprint(ctx context.Context, m *types.Member, fingerIndex int) (bool, string) {
	if !s.cfg.Mode.TransportEnabled() {
		return false, fmt.Sprintf("Direct device channel disabled; enroll manually on the terminal using user ID %s", m.DeviceUserCode)
	}
	err := s.device.EnrollFingerprint(ctx, m.DeviceUserCode, fingerIndex)
	if s.metrics != nil {
		s.metrics.ObserveSync("transport", err == nil)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("device_user_code", m.DeviceUserCode).Msg("enrollment command failed")
		return false, fmt.Sprintf("Device unreachable; enroll manually on the terminal using user ID %s", m.DeviceUserCode)
	}
	return true, "Enrollment started; the terminal should now show its scanning page"
}

func (s *SyncService) enqueue(ctx context.Context, m *types.Member, kind middleware.CommandKind) bool {
	if !s.cfg.Mode.QueueEnabled() {
		return false
	}
	err := s.queue.Enqueue(ctx, middleware.Request{
		MemberID:           m.ID,
		DeviceUserCode:     m.DeviceUserCode,
		DisplayName:        m.DisplayName,
		Kind:               kind,
		TargetDeviceSerial: s.cfg.TargetDeviceSerial,
	})
	if s.metrics != nil {
		s.metrics.ObserveSync("queue", err == nil)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("member_id", m.ID).Msg("middleware enqueue failed")
		return false
	}
	return true
}

// attemptTransport drives the direct channel with bounded retries,
// short-circuiting on the first acknowledged exchange.
func (s *SyncService) attemptTransport(ctx context.Context, op func(context.Context) error) (bool, string) {
	if !s.cfg.Mode.TransportEnabled() {
		return false, "direct device channel disabled"
	}

	var lastMsg string
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if s.metrics != nil {
			s.metrics.ObserveSync("transport", err == nil)
		}
		if err == nil {
			s.logger.Info().Int("attempt", attempt).Msg("device acknowledged over TCP")
			return true, ""
		}

		lastMsg = err.Error()
		s.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.cfg.MaxAttempts).
			Msg("TCP attempt failed")

		if attempt < s.cfg.MaxAttempts {
			select {
			case <-time.After(s.cfg.RetryBackoff):
			case <-ctx.Done():
				return false, ctx.Err().Error()
			}
		}
	}
	return false, lastMsg
}

func (s *SyncService) verdict(transportOK, queued bool, lastMsg, verb string) types.SyncResult {
	r := types.SyncResult{TransportOK: transportOK, Queued: queued}
	switch {
	case transportOK && queued:
		r.Message = fmt.Sprintf("User %s on device via TCP and middleware command queue", verb)
	case transportOK:
		r.Message = fmt.Sprintf("User %s on device via TCP", verb)
	case queued:
		r.Message = "Sync command queued in middleware; the device will be updated when the middleware processes it"
	default:
		r.Message = fmt.Sprintf("Device unreachable and middleware queue unavailable: %s", lastMsg)
	}
	return r
}
