// Package registry tracks the mapping from device id to push token so the
// delivery dispatcher knows where to send a notification.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a device id has no registration.
var ErrNotFound = errors.New("registry: device not found")

// Platform identifies which push provider a device is reachable through.
type Platform string

const (
	PlatformAPNs Platform = "apns"
	PlatformFCM  Platform = "fcm"
)

// Device is one registered push target.
type Device struct {
	ID       string
	Platform Platform
	Token    string
	LastSeen time.Time
}

// Registry is the Device Registry port. Register overwrites any existing
// entry for the same device id; Touch updates LastSeen without changing
// the token.
type Registry interface {
	Register(ctx context.Context, d Device) error
	Lookup(ctx context.Context, deviceID string) (Device, error)
	Touch(ctx context.Context, deviceID string, at time.Time) error
	Forget(ctx context.Context, deviceID string) error
}
