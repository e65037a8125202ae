package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds one full exchange (connect, write, first response
// chunk).  Matches the terminal's observed behavior: it either answers
// within a few seconds or not at all.
const DefaultTimeout = 10 * time.Second

var (
	ErrTimeout    = errors.New("device did not respond before the deadline")
	ErrNoResponse = errors.New("device closed the connection without responding")
)

// Transport performs exactly one request/response exchange per call over a
// fresh TCP connection.  The protocol has connectionless semantics, so no
// socket is kept between calls and there is nothing to pool.
type Transport struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

func NewTransport(host string, port int, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transport{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: timeout,
	}
}

// Addr returns the host:port the transport dials.
func (t *Transport) Addr() string { return t.addr }

// Send connects, writes the payload fully, and returns the first chunk the
// device sends back.  The whole exchange shares one deadline; a peer that
// closes without writing resolves immediately via ErrNoResponse rather
// than dangling until the deadline.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := t.dialer.DialContext(dialCtx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", t.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	switch {
	case err == nil:
		return nil, ErrNoResponse
	case errors.Is(err, io.EOF):
		return nil, ErrNoResponse
	default:
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("read: %w", err)
	}
}

// Ping checks plain TCP reachability without sending any command.
func (t *Transport) Ping(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.dialer.DialContext(dialCtx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", t.addr, err)
	}
	return conn.Close()
}
