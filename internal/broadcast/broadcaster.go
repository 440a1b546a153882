// Package broadcast implements the Broadcaster & Tick Loop (§4.7): fan-out
// of handler-triggered frames to every relevant connection, and the 10Hz
// tick that republishes headset poses and runs the lock-owner expiry scan.
package broadcast

import (
	"github.com/hashicorp/go-multierror"

	"github.com/sereno-labs/vfv-server/internal/session"
)

// Broadcaster fans frames out to connections. It holds no state of its own
// beyond what callers pass in — the registry and world are owned by the
// caller (internal/vfvserver's Server) so lock ordering stays entirely in
// the caller's hands.
//
// Grounded on alxayo-rtmp-go/internal/rtmp/server/registry.go's
// BroadcastMessage: snapshot the recipient set, then send to each without
// holding any lock across the sends themselves.
type Broadcaster struct{}

func New() *Broadcaster { return &Broadcaster{} }

// FanoutAll sends frame to every connection in conns, skipping any whose
// role is still Unidentified (they have not completed the handshake that
// makes a frame meaningful to them) and, when excludeConnID is non-empty,
// the connection whose ID matches it — used for pure transforms (§4.3),
// which echo back to every peer except the one that originated the
// mutation. Pass an empty excludeConnID to fan out to everyone. Connections
// whose outbound queue is full are collected into the returned error; the
// caller decides whether a failing connection should be closed.
func (b *Broadcaster) FanoutAll(frame []byte, conns []*session.Connection, excludeConnID string) error {
	var errs error
	for _, c := range conns {
		if c.Role == session.RoleUnidentified {
			continue
		}
		if excludeConnID != "" && c.ID == excludeConnID {
			continue
		}
		if !c.TrySend(frame) {
			errs = multierror.Append(errs, &backpressureError{connID: c.ID})
		}
	}
	return errs
}

// FanoutTo sends frame to exactly the connections in recipients (e.g. "every
// headset with anchoringSent=false" during anchor distribution), with the
// same backpressure-collection behavior as FanoutAll.
func (b *Broadcaster) FanoutTo(frame []byte, recipients []*session.Connection) error {
	var errs error
	for _, c := range recipients {
		if !c.TrySend(frame) {
			errs = multierror.Append(errs, &backpressureError{connID: c.ID})
		}
	}
	return errs
}

type backpressureError struct{ connID string }

func (e *backpressureError) Error() string {
	return "broadcast: connection " + e.connID + " outbound queue full"
}
