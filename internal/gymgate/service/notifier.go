package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/store"
	"github.com/gymgate/server/internal/gymgate/types"
	"github.com/gymgate/server/internal/metrics"
)

// Broadcaster pushes an event to live dashboard subscribers.  Publishing
// must never block or fail the decision path; implementations drop on a
// full buffer.
type Broadcaster interface {
	Broadcast(ev types.AccessEvent)
}

// Notifier applies the side effects of one access decision: the attempt
// counter, the last-access time on grants, the audit row, the live stream,
// and metrics.  None of these may fail the decision response, so errors
// are logged and swallowed.
type Notifier struct {
	members store.MemberStore
	events  store.AccessEventStore
	stream  Broadcaster
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewNotifier(
	members store.MemberStore,
	events store.AccessEventStore,
	stream Broadcaster,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Notifier {
	return &Notifier{
		members: members,
		events:  events,
		stream:  stream,
		metrics: m,
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

// Notify fans out one decision.  member is nil when the scanned code did
// not resolve; the attempt still gets an audit row and a broadcast with
// clientName "Unknown".
func (n *Notifier) Notify(
	ctx context.Context,
	member *types.Member,
	deviceUserCode string,
	dec types.AccessDecision,
	at time.Time,
	biometricType string,
) {
	if biometricType == "" {
		biometricType = "fingerprint"
	}

	clientName := "Unknown"
	var memberID *string
	if member != nil {
		clientName = member.DisplayName
		memberID = &member.ID

		// Both grants and denials count as attempts.
		if err := n.members.IncrementAccessAttempt(ctx, member.ID, at); err != nil {
			n.logger.Error().Err(err).Str("member_id", member.ID).Msg("attempt count update failed")
		}
		if dec.Allowed {
			if err := n.members.MarkAccessGranted(ctx, member.ID, at); err != nil {
				n.logger.Error().Err(err).Str("member_id", member.ID).Msg("last-access update failed")
			}
		}
	}

	if err := n.events.RecordEvent(ctx, store.AccessEventRecord{
		MemberID:       memberID,
		DeviceUserCode: deviceUserCode,
		Allowed:        dec.Allowed,
		Reason:         dec.Reason,
		BiometricType:  biometricType,
		OccurredAt:     at,
		RecordedAt:     time.Now().UTC(),
	}); err != nil {
		n.logger.Error().Err(err).Msg("access event audit write failed")
	}

	if n.metrics != nil {
		n.metrics.ObserveDecision(dec.Allowed)
	}

	if n.stream != nil {
		n.stream.Broadcast(types.AccessEvent{
			UserID:        deviceUserCode,
			ClientName:    clientName,
			Allowed:       dec.Allowed,
			Reason:        dec.Reason,
			Timestamp:     at,
			BiometricType: biometricType,
		})
	}

	n.logger.Info().
		Str("device_user_code", deviceUserCode).
		Str("client", clientName).
		Bool("allowed", dec.Allowed).
		Str("reason", dec.Reason).
		Msg("access attempt processed")
}
