package usecases_test

import (
	"testing"
	"time"

	"areascope/internal/core/usecases"
)

func TestNoticeService_ShowAndExpire(t *testing.T) {
	svc := usecases.NewNoticeService(50 * time.Millisecond)

	svc.Show("Operation cancelled")
	if got := svc.Current(); got != "Operation cancelled" {
		t.Fatalf("expected notice to be visible, got %q", got)
	}

	time.Sleep(150 * time.Millisecond)
	if got := svc.Current(); got != "" {
		t.Errorf("notice should have expired, got %q", got)
	}
}

func TestNoticeService_ReplaceRestartsExpiry(t *testing.T) {
	svc := usecases.NewNoticeService(100 * time.Millisecond)

	svc.Show("first")
	time.Sleep(60 * time.Millisecond)
	svc.Show("second")

	// The first notice's timer fires now; it must not clear the replacement.
	time.Sleep(60 * time.Millisecond)
	if got := svc.Current(); got != "second" {
		t.Fatalf("stale timer cleared a newer notice, got %q", got)
	}

	time.Sleep(100 * time.Millisecond)
	if got := svc.Current(); got != "" {
		t.Errorf("replacement should have expired, got %q", got)
	}
}

func TestNoticeService_DefaultTTL(t *testing.T) {
	svc := usecases.NewNoticeService(0)
	svc.Show("hello")
	if got := svc.Current(); got != "hello" {
		t.Errorf("expected notice with default ttl, got %q", got)
	}
}
