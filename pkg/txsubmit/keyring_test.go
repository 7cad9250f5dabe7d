package txsubmit

import (
	"context"
	"testing"
	"time"
)

func TestKeyringLeaseRelease(t *testing.T) {
	k := NewKeyring()
	k.Add("0xABC")

	entry, err := k.Lease(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("lease: %v", err)
	}
	if entry.Address != "0xABC" {
		t.Errorf("Address = %q, want 0xABC", entry.Address)
	}
	k.Release(entry)

	entry2, err := k.Lease(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("second lease: %v", err)
	}
	k.Release(entry2)
}

func TestKeyringLeaseBlocksUntilReleased(t *testing.T) {
	k := NewKeyring()
	k.Add("0xABC")

	entry, err := k.Lease(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("lease: %v", err)
	}

	done := make(chan struct{})
	go func() {
		entry2, err := k.Lease(context.Background(), "0xABC")
		if err != nil {
			t.Errorf("second lease: %v", err)
			return
		}
		k.Release(entry2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lease acquired before first was released")
	case <-time.After(50 * time.Millisecond):
	}

	k.Release(entry)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second lease never acquired after release")
	}
}

func TestKeyringLeaseContextCancelDoesNotLeak(t *testing.T) {
	k := NewKeyring()
	k.Add("0xABC")

	entry, err := k.Lease(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("lease: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := k.Lease(ctx, "0xABC"); err == nil {
		t.Fatal("expected lease to fail while held and context times out")
	}

	k.Release(entry)

	entry3, err := k.Lease(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("lease after cancelled waiter: %v", err)
	}
	k.Release(entry3)
}

func TestKeyringNonceRoundTrip(t *testing.T) {
	k := NewKeyring()
	k.Add("0xABC")
	entry, _ := k.Lease(context.Background(), "0xABC")
	defer k.Release(entry)

	if _, has := entry.Nonce(); has {
		t.Fatal("expected no cached nonce before SetNonce")
	}
	entry.SetNonce(5)
	if n, has := entry.Nonce(); !has || n != 5 {
		t.Fatalf("Nonce() = (%d, %v), want (5, true)", n, has)
	}
	entry.AdvanceNonce()
	if n, _ := entry.Nonce(); n != 6 {
		t.Fatalf("Nonce() after advance = %d, want 6", n)
	}
}

func TestKeyringLeaseUnknownAddress(t *testing.T) {
	k := NewKeyring()
	if _, err := k.Lease(context.Background(), "0xDOESNOTEXIST"); err == nil {
		t.Fatal("expected an error leasing an unregistered address")
	}
}
