// Package notify implements the transient notification feed shown in the
// status area of the CLI and TUI.
//
// Producers (the gateway, the page editor, the todo overlay, the session
// manager) post notifications into a shared Feed. Each notification carries a
// severity and expires after a per-severity TTL unless dismissed first. The
// consumer polls Active on every render; there is no subscription channel.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Severity classifies a notification for display.
type Severity string

const (
	// SeverityInfo is a neutral informational message.
	SeverityInfo Severity = "info"

	// SeveritySuccess reports a completed operation.
	SeveritySuccess Severity = "success"

	// SeverityWarning reports a recoverable problem.
	SeverityWarning Severity = "warning"

	// SeverityError reports a failed operation.
	SeverityError Severity = "error"
)

// ValidSeverities returns all valid severity values.
func ValidSeverities() []Severity {
	return []Severity{SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError}
}

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	for _, valid := range ValidSeverities() {
		if s == valid {
			return true
		}
	}
	return false
}

// TTL returns the default time-to-live for the severity. Errors linger
// longer than routine messages.
func (s Severity) TTL() time.Duration {
	switch s {
	case SeverityWarning:
		return 6 * time.Second
	case SeverityError:
		return 10 * time.Second
	default:
		return 4 * time.Second
	}
}

// Notification is a single feed entry.
type Notification struct {
	ID        int64
	Severity  Severity
	Message   string
	CreatedAt time.Time
	// ExpiresAt is zero for sticky notifications, which stay until dismissed.
	ExpiresAt time.Time
}

// Sticky returns true when the notification never expires on its own.
func (n Notification) Sticky() bool {
	return n.ExpiresAt.IsZero()
}

// DefaultCapacity bounds the feed; the oldest entries are dropped beyond it.
const DefaultCapacity = 50

// Feed is a bounded, concurrency-safe notification queue.
type Feed struct {
	mu       sync.Mutex
	nextID   int64
	items    []Notification
	clock    func() time.Time
	capacity int
}

// Option configures a Feed.
type Option func(*Feed)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(f *Feed) { f.clock = clock }
}

// WithCapacity overrides the maximum number of retained notifications.
func WithCapacity(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// NewFeed creates an empty feed.
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		clock:    time.Now,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Post adds a notification with the severity's default TTL and returns it.
func (f *Feed) Post(severity Severity, message string) Notification {
	return f.PostTTL(severity, message, severity.TTL())
}

// PostTTL adds a notification with an explicit TTL. A TTL of zero or less
// makes the notification sticky.
func (f *Feed) PostTTL(severity Severity, message string, ttl time.Duration) Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	now := f.clock()
	notification := Notification{
		ID:        f.nextID,
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
	}
	if ttl > 0 {
		notification.ExpiresAt = now.Add(ttl)
	}

	f.items = append(f.items, notification)
	if len(f.items) > f.capacity {
		f.items = append(f.items[:0:0], f.items[len(f.items)-f.capacity:]...)
	}
	return notification
}

// Infof posts a formatted info notification.
func (f *Feed) Infof(format string, args ...any) Notification {
	return f.Post(SeverityInfo, fmt.Sprintf(format, args...))
}

// Successf posts a formatted success notification.
func (f *Feed) Successf(format string, args ...any) Notification {
	return f.Post(SeveritySuccess, fmt.Sprintf(format, args...))
}

// Warningf posts a formatted warning notification.
func (f *Feed) Warningf(format string, args ...any) Notification {
	return f.Post(SeverityWarning, fmt.Sprintf(format, args...))
}

// Errorf posts a formatted error notification.
func (f *Feed) Errorf(format string, args ...any) Notification {
	return f.Post(SeverityError, fmt.Sprintf(format, args...))
}

// Active prunes expired notifications and returns the remainder, oldest
// first. The returned slice is a copy.
func (f *Feed) Active() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneLocked()
	active := make([]Notification, len(f.items))
	copy(active, f.items)
	return active
}

// Len returns the number of active notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneLocked()
	return len(f.items)
}

// Dismiss removes the notification with the given ID. It returns false when
// no such notification is active.
func (f *Feed) Dismiss(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAll removes every notification, including sticky ones.
func (f *Feed) DismissAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = nil
}

func (f *Feed) pruneLocked() {
	now := f.clock()
	kept := f.items[:0]
	for _, item := range f.items {
		if item.Sticky() || item.ExpiresAt.After(now) {
			kept = append(kept, item)
		}
	}
	f.items = kept
}
