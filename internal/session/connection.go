// Package session implements the Client Session component (§4.4): the
// per-connection state machine (identity, outbound backpressure) and the
// tablet/headset substates that identification promotes a connection into,
// plus the connection table (Registry) that owns them under §5's mapMutex.
package session

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
)

// Role is a connection's identity, promoted exactly once from Unidentified.
type Role int

const (
	RoleUnidentified Role = iota
	RoleTablet
	RoleHeadset
)

func (r Role) String() string {
	switch r {
	case RoleTablet:
		return "tablet"
	case RoleHeadset:
		return "headset"
	default:
		return "unidentified"
	}
}

// outboundQueueDepth bounds how many not-yet-written frames a connection
// will buffer before TrySend starts reporting backpressure. Sized well
// above one tick's worth of broadcast traffic so a merely-slow client does
// not get skipped on every tick.
const outboundQueueDepth = 256

// Connection is the per-TCP-connection state (§4.4): role, whichever of
// Tablet/Headset the role promoted it to, its streaming parser, and an
// outbound frame queue whose pending byte count is the backpressure signal
// the tick broadcaster and handlers check before sending (§4.7, §5).
//
// Role/Tablet/Headset are mutated only by Registry while holding mapMutex;
// Connection itself does not lock them. The outbound queue and byte counter
// use their own synchronization since §5 calls out per-connection write
// serialization as a finer lock than mapMutex.
type Connection struct {
	ID      string
	Net     net.Conn
	Role    Role
	Tablet  *TabletData
	Headset *HeadsetData

	outbound      chan []byte
	outboundBytes int64 // atomic

	closeOnce sync.Once
	done      chan struct{}
}

func NewConnection(id string, nc net.Conn) *Connection {
	return &Connection{
		ID:       id,
		Net:      nc,
		outbound: make(chan []byte, outboundQueueDepth),
		done:     make(chan struct{}),
	}
}

// OutboundBytes reports bytes currently queued but not yet written, the
// value §4.7's backpressure threshold (64 KiB) is compared against.
func (c *Connection) OutboundBytes() int64 { return atomic.LoadInt64(&c.outboundBytes) }

// TrySend enqueues frame without blocking. It returns false if the queue is
// full; callers on the tick path treat that as BackpressureSkip (§7), while
// callers on the handler-fanout path may choose to close the connection
// instead since those frames are not safely droppable.
func (c *Connection) TrySend(frame []byte) bool {
	select {
	case c.outbound <- frame:
		atomic.AddInt64(&c.outboundBytes, int64(len(frame)))
		return true
	default:
		return false
	}
}

// WriteLoop drains the outbound queue to the socket until ctx is cancelled
// or the connection is closed. Grounded on
// alxayo-rtmp-go/internal/rtmp/conn/conn.go's startWriteLoop.
func (c *Connection) WriteLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case frame := <-c.outbound:
			n, err := c.Net.Write(frame)
			atomic.AddInt64(&c.outboundBytes, -int64(len(frame)))
			if err != nil {
				return err
			}
			if n != len(frame) {
				return errShortWrite
			}
		}
	}
}

// Close stops WriteLoop and closes the underlying socket. Safe to call more
// than once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.Net.Close()
}
