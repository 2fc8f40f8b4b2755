package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRegistryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	dev := Device{ID: "dev-1", Platform: PlatformAPNs, Token: "tok-abc"}
	if err := m.Register(ctx, dev); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := m.Lookup(ctx, "dev-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Token != "tok-abc" || got.Platform != PlatformAPNs {
		t.Fatalf("Lookup returned %+v", got)
	}
	if got.LastSeen.IsZero() {
		t.Fatalf("expected LastSeen to be set by default")
	}
}

func TestMemoryRegistryLookupMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.Lookup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryRegistryTouch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Register(ctx, Device{ID: "dev-1", Platform: PlatformFCM, Token: "tok"})

	at := time.Now().Add(time.Hour)
	if err := m.Touch(ctx, "dev-1", at); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	got, _ := m.Lookup(ctx, "dev-1")
	if !got.LastSeen.Equal(at) {
		t.Fatalf("LastSeen = %v, want %v", got.LastSeen, at)
	}
}

func TestMemoryRegistryTouchMissing(t *testing.T) {
	m := NewMemory()
	if err := m.Touch(context.Background(), "missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryRegistryForget(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Register(ctx, Device{ID: "dev-1", Platform: PlatformFCM, Token: "tok"})
	_ = m.Forget(ctx, "dev-1")
	if _, err := m.Lookup(ctx, "dev-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after Forget, got %v", err)
	}
}
