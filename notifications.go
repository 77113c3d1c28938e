package authclient

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the flavour of a notification
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

const (
	// DefaultNotificationTTL is how long a notification stays visible
	DefaultNotificationTTL = 2000 * time.Millisecond
	// DefaultMaxActiveNotifications bounds the active set, oldest first out
	DefaultMaxActiveNotifications = 50
)

// Notification is a transient user facing message
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// Timer is the handle returned by the bus timer factory.
type Timer interface {
	Stop() bool
}

// TimerFunc schedules fn after d.
type TimerFunc func(d time.Duration, fn func()) Timer

// NotificationBus keeps an ordered set of notifications. Every notification is
// removed by its own timer after the TTL; removing it earlier stops that timer.
// The bus is independent from the session, callers publish outcomes to it.
type NotificationBus struct {
	ttl       time.Duration
	maxActive int
	now       func() time.Time
	newID     func() string
	afterFunc TimerFunc
	logger    Logger

	mu     sync.Mutex
	active []Notification
	timers map[string]Timer
	closed bool

	subMu     sync.Mutex
	subs      map[int]func([]Notification)
	nextSubID int
}

// NotificationOption customizes a NotificationBus.
type NotificationOption func(*NotificationBus)

// WithTTL overrides how long notifications stay active.
func WithTTL(ttl time.Duration) NotificationOption {
	return func(b *NotificationBus) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithMaxActive bounds the active set. Zero or less disables the bound.
func WithMaxActive(n int) NotificationOption {
	return func(b *NotificationBus) {
		b.maxActive = n
	}
}

// WithNotificationClock injects the clock used for CreatedAt.
func WithNotificationClock(clock func() time.Time) NotificationOption {
	return func(b *NotificationBus) {
		if clock != nil {
			b.now = clock
		}
	}
}

// WithIDGenerator overrides the notification id generator.
func WithIDGenerator(gen func() string) NotificationOption {
	return func(b *NotificationBus) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// WithTimerFunc overrides the timer factory (useful for tests).
func WithTimerFunc(fn TimerFunc) NotificationOption {
	return func(b *NotificationBus) {
		if fn != nil {
			b.afterFunc = fn
		}
	}
}

// WithNotificationLogger sets the logger.
func WithNotificationLogger(logger Logger) NotificationOption {
	return func(b *NotificationBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewNotificationBus returns an empty bus.
func NewNotificationBus(opts ...NotificationOption) *NotificationBus {
	b := &NotificationBus{
		ttl:       DefaultNotificationTTL,
		maxActive: DefaultMaxActiveNotifications,
		now:       time.Now,
		newID:     uuid.NewString,
		afterFunc: func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) },
		logger:    defLogger{},
		timers:    map[string]Timer{},
		subs:      map[int]func([]Notification){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// TTL returns how long notifications stay active.
func (b *NotificationBus) TTL() time.Duration {
	return b.ttl
}

// Success publishes a success notification
func (b *NotificationBus) Success(message string) string {
	return b.Publish(NotificationSuccess, message)
}

// Error publishes an error notification
func (b *NotificationBus) Error(message string) string {
	return b.Publish(NotificationError, message)
}

// Publish appends a notification and arms its expiry timer. It returns the
// new id, or an empty string once the bus is closed.
func (b *NotificationBus) Publish(kind NotificationKind, message string) string {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug("notification bus closed, dropping %s: %s", kind, message)
		return ""
	}

	n := Notification{
		ID:        b.newID(),
		Kind:      kind,
		Message:   message,
		CreatedAt: b.now(),
	}
	b.active = append(b.active, n)

	for b.maxActive > 0 && len(b.active) > b.maxActive {
		evicted := b.active[0]
		b.active = b.active[1:]
		b.stopTimerLocked(evicted.ID)
	}

	id := n.ID
	b.timers[id] = b.afterFunc(b.ttl, func() { b.expire(id) })
	snapshot := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snapshot)
	return id
}

// Remove drops the notification with id and stops its timer. Removing an id
// that is no longer active is a no-op that returns false.
func (b *NotificationBus) Remove(id string) bool {
	b.mu.Lock()
	if !b.removeLocked(id) {
		b.mu.Unlock()
		return false
	}
	b.stopTimerLocked(id)
	snapshot := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snapshot)
	return true
}

// Active returns the active notifications in publish order.
func (b *NotificationBus) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Subscribe registers fn to receive the active set after every change.
func (b *NotificationBus) Subscribe(fn func([]Notification)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.subMu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subs[id] = fn
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

// Close stops every pending timer and clears the active set. Publishing
// after Close is a no-op.
func (b *NotificationBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id := range b.timers {
		b.stopTimerLocked(id)
	}
	b.active = nil
	b.mu.Unlock()

	b.notify(nil)
}

func (b *NotificationBus) expire(id string) {
	b.mu.Lock()
	delete(b.timers, id)
	if !b.removeLocked(id) {
		b.mu.Unlock()
		return
	}
	snapshot := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snapshot)
}

func (b *NotificationBus) removeLocked(id string) bool {
	for i, n := range b.active {
		if n.ID == id {
			b.active = append(b.active[:i:i], b.active[i+1:]...)
			return true
		}
	}
	return false
}

func (b *NotificationBus) stopTimerLocked(id string) {
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
}

func (b *NotificationBus) snapshotLocked() []Notification {
	out := make([]Notification, len(b.active))
	copy(out, b.active)
	return out
}

func (b *NotificationBus) notify(active []Notification) {
	b.subMu.Lock()
	subs := make([]func([]Notification), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.subMu.Unlock()

	for _, fn := range subs {
		fn(active)
	}
}
