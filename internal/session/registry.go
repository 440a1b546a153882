package session

import (
	"net"
	"strings"
	"sync"

	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/world"
)

// remoteHost strips the port from a connection's remote address, or
// returns the raw string if it has no port (e.g. net.Pipe's "pipe").
func remoteHost(nc net.Conn) string {
	addr := nc.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return strings.TrimSuffix(addr.String(), ":")
	}
	return host
}

// Registry is the connection table (§4.7, §5's mapMutex): every live
// Connection keyed by ID, the tablet/headset ID counters, and the headset
// color palette — bundled together because the spec places the color pool
// under the same lock as the connection table, not under datasetMutex.
//
// Grounded on alxayo-rtmp-go/internal/rtmp/server/registry.go's
// Registry/Stream shape, generalized from one registry-per-stream-key to
// one registry for the whole server (this protocol has no multi-stream
// namespace to key by).
type Registry struct {
	mu sync.Mutex

	conns map[string]*Connection

	nextTabletID  uint32
	nextHeadsetID uint32
	palette       *world.ColorPalette
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[string]*Connection),
		palette: world.NewColorPalette(),
	}
}

// Add registers a newly-accepted, still-unidentified connection.
func (r *Registry) Add(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

// Remove drops a connection from the table and, if it had been promoted to
// headset, returns its color to the palette. ok reports whether id was a
// known connection at all; headset is non-nil only when the removed
// connection had been identified as a headset, so callers can distinguish
// "removed a tablet" from "removed a headset" from "id was already gone".
func (r *Registry) Remove(id string) (headset *HeadsetData, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	if c.Role == RoleHeadset && c.Headset != nil {
		r.palette.Push(c.Headset.Color)
		return c.Headset, true
	}
	return nil, true
}

// PromoteToTablet assigns a monotonic tablet ID and marks c as a tablet.
// Returns an error if c has already been identified.
func (r *Registry) PromoteToTablet(c *Connection, handedness uint32, boundHeadsetID uint32, hasBoundHeadset bool) (*TabletData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Role != RoleUnidentified {
		return nil, protoerr.NewRoleViolation("session.promote_tablet", "unidentified", c.Role.String())
	}
	r.nextTabletID++
	td := &TabletData{
		ID:              r.nextTabletID,
		Handedness:      handedness,
		BoundHeadsetID:  boundHeadsetID,
		HasBoundHeadset: hasBoundHeadset,
	}
	c.Role = RoleTablet
	c.Tablet = td
	return td, nil
}

// PromoteToHeadset assigns a monotonic headset ID and a palette color, and
// marks c as a headset. Returns world.ErrPaletteExhausted if the session is
// already at MAX_NB_HEADSETS.
func (r *Registry) PromoteToHeadset(c *Connection) (*HeadsetData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Role != RoleUnidentified {
		return nil, protoerr.NewRoleViolation("session.promote_headset", "unidentified", c.Role.String())
	}
	color, err := r.palette.Pop()
	if err != nil {
		return nil, err
	}
	hd := &HeadsetData{
		ID:                r.nextHeadsetID,
		Color:             color,
		VolumetricWorking: make(map[uint32]struct{}),
	}
	r.nextHeadsetID++
	c.Role = RoleHeadset
	c.Headset = hd
	return hd, nil
}

// Bind pairs a tablet and a headset by connection-local substate. Either
// side may already be bound to a different peer; the newer binding wins,
// matching the original's last-writer pairing.
func (r *Registry) Bind(tablet *TabletData, headset *HeadsetData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tablet.BoundHeadsetID, tablet.HasBoundHeadset = headset.ID, true
	headset.BoundTabletID, headset.HasBoundTablet = tablet.ID, true
}

// Snapshot returns every current connection. The slice is a copy; callers
// must not assume it stays current.
func (r *Registry) Snapshot() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// FindHeadset returns the connection currently identified as headsetID.
func (r *Registry) FindHeadset(headsetID uint32) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.Role == RoleHeadset && c.Headset != nil && c.Headset.ID == headsetID {
			return c, true
		}
	}
	return nil, false
}

// FindTablet returns the connection currently identified as tabletID.
func (r *Registry) FindTablet(tabletID uint32) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.Role == RoleTablet && c.Tablet != nil && c.Tablet.ID == tabletID {
			return c, true
		}
	}
	return nil, false
}

// FindHeadsetByIP returns the first connected headset whose remote address
// host matches ip, used by IdentTablet's auto-pair (§4.4): a tablet names
// its intended headset by IP rather than by ID, since it learns the ID only
// after the headset has identified itself.
func (r *Registry) FindHeadsetByIP(ip string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.Role != RoleHeadset || c.Headset == nil || c.Net == nil {
			continue
		}
		if remoteHost(c.Net) == ip {
			return c, true
		}
	}
	return nil, false
}

// Count reports the number of live connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
