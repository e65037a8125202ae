package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/store"
	"github.com/gymgate/server/internal/gymgate/types"
)

// Reason strings returned to the device and shown on the dashboard.
const (
	ReasonGranted        = "Access granted"
	ReasonUserNotFound   = "User not found in system"
	ReasonPackageExpired = "Package expired"
	ReasonNotActive      = "Access not active"
	ReasonPendingPayment = "Pending payment"
	ReasonSystemError    = "System error"
)

// DoorOpenSeconds is how long the relay holds the door on a grant.
const DoorOpenSeconds = 3

// AccessService evaluates device scans.  The guard chain is ordered and the
// order is part of the contract: the first failing guard decides the reason.
type AccessService struct {
	members store.MemberStore
	logger  zerolog.Logger
}

func NewAccessService(members store.MemberStore, logger zerolog.Logger) *AccessService {
	return &AccessService{
		members: members,
		logger:  logger.With().Str("component", "access").Logger(),
	}
}

func deny(reason string) types.AccessDecision {
	return types.AccessDecision{Allowed: false, Reason: reason}
}

// Evaluate decides whether the holder of deviceUserCode may enter at the
// given wall-clock instant.  It is total: any lookup failure degrades to a
// deny with "System error", never an error — the device-facing endpoint
// must always have a well-formed decision to return.
//
// The resolved member is returned alongside the decision (nil when the
// code is unknown) so the caller can feed the notifier without a second
// lookup.
func (s *AccessService) Evaluate(ctx context.Context, deviceUserCode string, at time.Time) (types.AccessDecision, *types.Member) {
	member, err := s.members.GetByDeviceCode(ctx, strings.TrimSpace(deviceUserCode))
	if err != nil {
		s.logger.Error().Err(err).Str("device_user_code", deviceUserCode).Msg("member lookup failed")
		return deny(ReasonSystemError), nil
	}
	if member == nil {
		return deny(ReasonUserNotFound), nil
	}

	if member.PackageEndDate != nil && at.After(*member.PackageEndDate) {
		return deny(ReasonPackageExpired), member
	}

	if !member.AccessActive {
		return deny(ReasonNotActive), member
	}

	if member.PendingAmount > 0 {
		return deny(ReasonPendingPayment), member
	}

	weekday := at.Weekday()
	entry := member.Schedule.Entry(weekday)
	if !entry.Enabled {
		return deny(fmt.Sprintf("No access on %s", strings.ToLower(weekday.String()))), member
	}

	// Window boundaries are inclusive on both ends.
	minutes := at.Hour()*60 + at.Minute()
	if minutes < entry.StartMinute || minutes > entry.EndMinute {
		return deny(fmt.Sprintf("Access allowed only between %s and %s",
			types.FormatClock(entry.StartMinute), types.FormatClock(entry.EndMinute))), member
	}

	return types.AccessDecision{
		Allowed:         true,
		Reason:          ReasonGranted,
		OpenDoor:        true,
		DoorOpenSeconds: DoorOpenSeconds,
	}, member
}
