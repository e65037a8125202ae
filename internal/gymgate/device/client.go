package device

import (
	"context"
	"encoding/hex"

	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/types"
)

// Client issues the protocol commands this system uses against one
// terminal.  Each call is a single transport exchange; a non-empty response
// is an acknowledgement and nothing stronger (see IsAcknowledged).
type Client struct {
	transport *Transport
	logger    zerolog.Logger
}

func NewClient(t *Transport, logger zerolog.Logger) *Client {
	return &Client{transport: t, logger: logger.With().Str("component", "device").Logger()}
}

func (c *Client) exchange(ctx context.Context, op string, payload []byte) error {
	resp, err := c.transport.Send(ctx, payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("device exchange failed")
		return err
	}
	if !IsAcknowledged(resp) {
		c.logger.Warn().Str("op", op).Msg("device returned empty response")
		return ErrNoResponse
	}
	c.logger.Debug().Str("op", op).Str("response", hex.EncodeToString(resp)).Msg("device acknowledged")
	return nil
}

// RegisterUser adds (or overwrites) a user on the terminal.
func (c *Client) RegisterUser(ctx context.Context, deviceUserCode, displayName string) error {
	payload, err := EncodeAddUser(deviceUserCode, displayName)
	if err != nil {
		return err
	}
	return c.exchange(ctx, "add_user", payload)
}

// DeleteUser removes a user from the terminal.
func (c *Client) DeleteUser(ctx context.Context, deviceUserCode string) error {
	payload, err := EncodeDeleteUser(deviceUserCode)
	if err != nil {
		return err
	}
	return c.exchange(ctx, "delete_user", payload)
}

// EnrollFingerprint puts the terminal into its enrollment flow for the
// given user and finger.
func (c *Client) EnrollFingerprint(ctx context.Context, deviceUserCode string, fingerIndex int) error {
	payload, err := EncodeEnrollFingerprint(deviceUserCode, fingerIndex)
	if err != nil {
		return err
	}
	return c.exchange(ctx, "enroll_fingerprint", payload)
}

// SetSchedule pushes a full weekly schedule for the user.
func (c *Client) SetSchedule(ctx context.Context, deviceUserCode string, sched types.Schedule) error {
	payload, err := EncodeSetSchedule(deviceUserCode, sched)
	if err != nil {
		return err
	}
	return c.exchange(ctx, "set_schedule", payload)
}

// Ping checks TCP reachability of the terminal.
func (c *Client) Ping(ctx context.Context) error {
	return c.transport.Ping(ctx)
}

// Addr returns the terminal address the client talks to.
func (c *Client) Addr() string { return c.transport.Addr() }
