package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is the reachability surface of the device transport.
type Pinger interface {
	Ping(ctx context.Context) error
	Addr() string
}

// DeviceStatus is the last observed reachability of the terminal.
type DeviceStatus struct {
	Connected bool      `json:"connected"`
	Addr      string    `json:"addr"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// HealthProber periodically dials the terminal and records whether it is
// reachable.  It runs as a background goroutine and is safe to stop via
// its context or the Stop method.
//
// An interval of 0 disables probing entirely.
type HealthProber struct {
	device   Pinger
	interval time.Duration
	logger   zerolog.Logger
	cancel   context.CancelFunc
	done     chan struct{}

	mu   sync.RWMutex
	last DeviceStatus
}

func NewHealthProber(device Pinger, interval time.Duration, logger zerolog.Logger) *HealthProber {
	return &HealthProber{
		device:   device,
		interval: interval,
		logger:   logger.With().Str("component", "health").Logger(),
		done:     make(chan struct{}),
		last:     DeviceStatus{Addr: device.Addr()},
	}
}

// Start begins the background probe loop.  It probes immediately on
// startup, then repeats on the configured interval.  The loop exits when
// ctx is cancelled or Stop is called.
func (p *HealthProber) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info().Msg("device health prober disabled (interval=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Info().
		Str("device", p.device.Addr()).
		Dur("interval", p.interval).
		Msg("device health prober started")
}

// Stop signals the prober to exit and waits for it to finish.
func (p *HealthProber) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// Status returns the last recorded probe result.
func (p *HealthProber) Status() DeviceStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// CheckNow probes immediately and records the result.
func (p *HealthProber) CheckNow(ctx context.Context) DeviceStatus {
	return p.probe(ctx)
}

func (p *HealthProber) loop(ctx context.Context) {
	defer close(p.done)

	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *HealthProber) probe(ctx context.Context) DeviceStatus {
	status := DeviceStatus{
		Addr:      p.device.Addr(),
		CheckedAt: time.Now().UTC(),
	}

	if err := p.device.Ping(ctx); err != nil {
		status.Error = err.Error()
		p.logger.Debug().Err(err).Msg("device unreachable")
	} else {
		status.Connected = true
	}

	p.mu.Lock()
	p.last = status
	p.mu.Unlock()
	return status
}
