package auth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// NotificationKind defines a public type used by auth APIs.
//
// NotificationKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotificationKind string

const (
	// NotifyNewLogin is an exported constant or variable used by the auth engine.
	NotifyNewLogin NotificationKind = "new_login"
	// NotifyAccountLocked is an exported constant or variable used by the auth engine.
	NotifyAccountLocked NotificationKind = "account_locked"
	// NotifySessionRevoked is an exported constant or variable used by the auth engine.
	NotifySessionRevoked NotificationKind = "session_revoked"
	// NotifySuspiciousActivity is an exported constant or variable used by the auth engine.
	NotifySuspiciousActivity NotificationKind = "suspicious_activity"
	// NotifyMFAEnrollment is an exported constant or variable used by the auth engine.
	NotifyMFAEnrollment NotificationKind = "mfa_enrollment"
	// NotifyMFAEnabled is an exported constant or variable used by the auth engine.
	NotifyMFAEnabled NotificationKind = "mfa_enabled"
	// NotifyMFADisabled is an exported constant or variable used by the auth engine.
	NotifyMFADisabled NotificationKind = "mfa_disabled"
	// NotifyPasswordChanged is an exported constant or variable used by the auth engine.
	NotifyPasswordChanged NotificationKind = "password_changed"
)

// Notification defines a public type used by auth APIs.
//
// Notification instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Notification struct {
	Timestamp  time.Time         `json:"timestamp"`
	Kind       NotificationKind  `json:"kind"`
	IdentityID string            `json:"identity_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Notifier defines a public type used by auth APIs.
//
// Notifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NoOpNotifier defines a public type used by auth APIs.
//
// NoOpNotifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoOpNotifier struct{}

// Notify describes the notify operation and its observable behavior.
//
// Notify may return an error when input validation, dependency calls, or security checks fail.
// Notify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpNotifier) Notify(context.Context, Notification) {}

// ChannelNotifier defines a public type used by auth APIs.
//
// ChannelNotifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelNotifier struct {
	events chan Notification
}

// NewChannelNotifier describes the newchannelnotifier operation and its observable behavior.
//
// NewChannelNotifier may return an error when input validation, dependency calls, or security checks fail.
// NewChannelNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		events: make(chan Notification, buffer),
	}
}

// Notify describes the notify operation and its observable behavior.
//
// Notify may return an error when input validation, dependency calls, or security checks fail.
// Notify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (n *ChannelNotifier) Notify(ctx context.Context, event Notification) {
	select {
	case n.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
//
// Events may return an error when input validation, dependency calls, or security checks fail.
// Events does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (n *ChannelNotifier) Events() <-chan Notification {
	return n.events
}

// JSONWriterNotifier defines a public type used by auth APIs.
//
// JSONWriterNotifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JSONWriterNotifier struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterNotifier describes the newjsonwriternotifier operation and its observable behavior.
//
// NewJSONWriterNotifier may return an error when input validation, dependency calls, or security checks fail.
// NewJSONWriterNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewJSONWriterNotifier(w io.Writer) *JSONWriterNotifier {
	return &JSONWriterNotifier{
		writer: w,
	}
}

// Notify describes the notify operation and its observable behavior.
//
// Notify may return an error when input validation, dependency calls, or security checks fail.
// Notify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (n *JSONWriterNotifier) Notify(ctx context.Context, event Notification) {
	if n == nil || n.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	_, _ = n.writer.Write(data)
	_, _ = n.writer.Write([]byte("\n"))
}
