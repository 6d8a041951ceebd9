package auth

import (
	"context"

	"github.com/krishshahi/homeaze-auth/session"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type deviceContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine records
// it on new sessions and feeds it into suspicious activity analysis and
// security notifications.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx. It is stored on
// new sessions when no explicit device info is provided.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithDevice attaches parsed device information to ctx. When present it
// takes precedence over the raw User-Agent string for session records and
// suspicious activity analysis.
func WithDevice(ctx context.Context, device session.DeviceInfo) context.Context {
	return context.WithValue(ctx, deviceContextKey{}, device)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func deviceFromContext(ctx context.Context) session.DeviceInfo {
	if ctx == nil {
		return session.DeviceInfo{}
	}

	device, ok := ctx.Value(deviceContextKey{}).(session.DeviceInfo)
	if !ok {
		device = session.DeviceInfo{}
	}
	if device.IP == "" {
		device.IP = clientIPFromContext(ctx)
	}
	if device.UserAgent == "" {
		device.UserAgent = userAgentFromContext(ctx)
	}
	return device
}
