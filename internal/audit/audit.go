// Package audit implements the Audit Log (component 9, §2; §10.4 of
// SPEC_FULL.md): an optional, append-only, rotated JSON-lines trace of
// inbound/outbound protocol events. Disabled by default; enabling it never
// adds latency to the request path since events are handed to a background
// goroutine and a full queue drops the event rather than blocking the
// caller.
//
// Grounded on two alxayo-rtmp-go patterns adapted into one: the
// Event/HookManager shape from internal/rtmp/server/hooks (manager.go,
// events.go) — a typed event with a timestamp and a free-form data map,
// dispatched asynchronously — combined with internal/rtmp/media/recorder.go's
// graceful self-disabling file sink (a write error turns the sink off
// instead of propagating into the caller's hot path).
package audit

import (
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sereno-labs/vfv-server/internal/logger"
)

// EventType names the kind of protocol occurrence an Event records.
type EventType string

const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
	EventIdentify   EventType = "identify"
	EventMutation   EventType = "mutation"
	EventAnchor     EventType = "anchor"
	EventDenied     EventType = "permission_denied"
)

// Event is one line of the audit trail: a type, a timestamp, the connection
// and/or headset it concerns, and a free-form payload for whatever that
// event kind needs (e.g. a mutation's datasetID/sdID).
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ConnID    string         `json:"conn_id,omitempty"`
	HeadsetID uint32         `json:"headset_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent starts building an Event, stamping the current time.
func NewEvent(t EventType) Event { return Event{Type: t, Timestamp: time.Now()} }

func (e Event) WithConnID(id string) Event    { e.ConnID = id; return e }
func (e Event) WithHeadsetID(id uint32) Event { e.HeadsetID = id; return e }

func (e Event) WithData(key string, val any) Event {
	if e.Data == nil {
		e.Data = make(map[string]any, 1)
	}
	e.Data[key] = val
	return e
}

// queueDepth bounds how many not-yet-written events the background writer
// will buffer before Emit starts silently dropping, so a stalled disk can
// never turn into unbounded memory growth or a blocked handler.
const queueDepth = 1024

// Logger is the audit trail's writer: a rotated JSON-lines file sink fed by
// a single background goroutine. The zero value (returned by New("")) is a
// valid, fully inert no-op.
type Logger struct {
	log *zap.Logger

	mu sync.Mutex
	w  io.WriteCloser

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New opens path for rotated append-only writing and starts the background
// writer. An empty path disables the audit log entirely: the returned
// Logger's Emit becomes a cheap no-op and Close is safe to call regardless.
func New(path string) *Logger {
	l := &Logger{log: logger.Named("audit")}
	if path == "" {
		return l
	}
	l.w = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	l.events = make(chan Event, queueDepth)
	l.done = make(chan struct{})
	l.wg.Add(1)
	go l.run()
	return l
}

// Emit hands e to the background writer without blocking. If the queue is
// full the event is dropped and counted in a warning log rather than
// slowing down the caller, which is always a handler on the hot path.
func (l *Logger) Emit(e Event) {
	if l == nil || l.events == nil {
		return
	}
	select {
	case l.events <- e:
	default:
		l.log.Warn("audit event dropped, queue full", zap.String("type", string(e.Type)))
	}
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.events:
			l.write(e)
		case <-l.done:
			l.drain()
			return
		}
	}
}

// drain flushes whatever is still buffered in events before run returns, so
// a Close immediately after a burst of Emit calls does not silently lose
// them.
func (l *Logger) drain() {
	for {
		select {
		case e := <-l.events:
			l.write(e)
		default:
			return
		}
	}
}

func (l *Logger) write(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		l.log.Error("audit marshal failed", zap.Error(err))
		return
	}
	b = append(b, '\n')
	if _, err := l.w.Write(b); err != nil {
		l.log.Error("audit write failed, disabling audit log", zap.Error(err))
		_ = l.w.Close()
		l.w = nil
	}
}

// Close stops the background writer, draining anything still queued, and
// closes the underlying file. Safe to call on a disabled Logger.
func (l *Logger) Close() error {
	if l == nil || l.events == nil {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w != nil {
		err := l.w.Close()
		l.w = nil
		return err
	}
	return nil
}
