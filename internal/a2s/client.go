package a2s

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the read timeout of every single round trip.
	DefaultTimeout = 5 * time.Second

	// DefaultBufferSize is the maximum reply datagram size read.
	DefaultBufferSize uint16 = 1400

	// ReasonUnreachable is the Offline reason when no candidate port answered.
	ReasonUnreachable = "unable to reach server"
)

const (
	headerSize    = 5
	challengeSize = headerSize + 4

	typeChallenge byte = 0x41
	typeInfo      byte = 0x49
)

var (
	packetHeader = []byte{0xFF, 0xFF, 0xFF, 0xFF}

	// infoRequest is the A2S_INFO request: header, 'T', "Source Engine Query\x00".
	infoRequest = append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54}, "Source Engine Query\x00"...)

	// portOffsets lists the query port candidates relative to the game port, in order.
	portOffsets = [...]int{0, 1, -1}
)

// Client queries servers with A2S_INFO. The zero value uses DefaultTimeout
// and DefaultBufferSize. A Client holds no per-query state and is safe for
// concurrent use.
type Client struct {
	// queryPort is replaced in tests to observe the candidate order.
	queryPort func(ctx context.Context, target Target) Result

	Timeout    time.Duration
	BufferSize uint16
}

// New returns a client with the given read timeout and reply buffer size.
// Zero values fall back to the defaults.
func New(timeout time.Duration, bufferSize uint16) *Client {
	return &Client{Timeout: timeout, BufferSize: bufferSize}
}

// Candidates returns the ports tried for a nominal game port: p, p+1, p-1.
// Ports outside 1..65535 are skipped.
func Candidates(port uint16) []uint16 {
	ports := make([]uint16, 0, len(portOffsets))
	for _, off := range portOffsets {
		p := int(port) + off
		if p < 1 || p > 65535 {
			continue
		}
		ports = append(ports, uint16(p))
	}

	return ports
}

// Query tries every candidate port of target in order and returns the first
// Online result, or Offline(ReasonUnreachable) when none answers.
func (c *Client) Query(ctx context.Context, target Target) Result {
	queryPort := c.queryPort
	if queryPort == nil {
		queryPort = c.QueryPort
	}

	logger := zerolog.Ctx(ctx)
	for _, port := range Candidates(target.Port) {
		if err := ctx.Err(); err != nil {
			return offline("query canceled", err)
		}

		attempt := Target{Host: target.Host, Port: port}
		res := queryPort(ctx, attempt)
		if res.Online() {
			logger.Trace().
				Str("addr", attempt.Addr()).
				Int64("ping_ms", res.Info.Ping).
				Msg("A2S query succeeded")
			return res
		}

		logger.Trace().
			Err(res.Err).
			Str("addr", attempt.Addr()).
			Str("status", res.Status.String()).
			Msg("A2S query attempt failed")
	}

	return offline(ReasonUnreachable, ErrUnreachable)
}

// QueryPort performs one request/challenge/response exchange against exactly
// one port. Failures never escape as errors; they become Offline or Error results.
func (c *Client) QueryPort(ctx context.Context, target Target) Result {
	info, err := c.exchange(ctx, target)
	if err != nil {
		return resultFor(err)
	}

	return online(info)
}

func (c *Client) exchange(ctx context.Context, target Target) (*Info, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", target.Addr())
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock a pending read when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	buf := make([]byte, c.bufferSize())
	start := time.Now()

	n, err := c.roundTrip(ctx, conn, infoRequest, buf)
	if err != nil {
		return nil, err
	}
	resp := buf[:n]

	if len(resp) < headerSize {
		return nil, fmt.Errorf("%w: reply of %d bytes", ErrMalformedResponse, len(resp))
	}
	if !bytes.Equal(resp[:4], packetHeader) {
		return nil, fmt.Errorf("%w: bad header % x", ErrMalformedResponse, resp[:4])
	}

	if resp[4] == typeChallenge {
		if len(resp) < challengeSize {
			return nil, fmt.Errorf("%w: challenge reply of %d bytes", ErrMalformedResponse, len(resp))
		}

		// The token is echoed byte for byte.
		req := make([]byte, 0, len(infoRequest)+4)
		req = append(req, infoRequest...)
		req = append(req, resp[headerSize:challengeSize]...)

		n, err = c.roundTrip(ctx, conn, req, buf)
		if err != nil {
			return nil, err
		}
		resp = buf[:n]
	}

	ping := time.Since(start)

	if len(resp) < headerSize {
		return nil, fmt.Errorf("%w: reply of %d bytes", ErrMalformedResponse, len(resp))
	}
	if resp[4] != typeInfo {
		return nil, &ErrUnexpectedType{Type: resp[4]}
	}

	info, err := DecodeInfo(resp[headerSize:])
	if err != nil {
		return nil, err
	}
	info.Ping = ping.Round(time.Millisecond).Milliseconds()

	return info, nil
}

// roundTrip writes req and reads one datagram into buf within the read timeout.
func (c *Client) roundTrip(ctx context.Context, conn net.Conn, req, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	deadline := time.Now().Add(c.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, classify(err)
	}
	// A cancellation that fired before SetDeadline had its expired deadline overwritten.
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	if _, err := conn.Write(req); err != nil {
		return 0, classify(err)
	}

	n, err := conn.Read(buf)
	if err != nil {
		return 0, classify(err)
	}

	return n, nil
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) bufferSize() int {
	if c.BufferSize == 0 {
		return int(DefaultBufferSize)
	}
	return int(c.BufferSize)
}
