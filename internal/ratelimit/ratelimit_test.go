package ratelimit

import (
	"testing"
	"time"
)

func TestAllowUnderLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("ip:1") {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
}

func TestAllowBlocksOverLimit(t *testing.T) {
	l := New(2, time.Minute)
	l.Allow("ip:1")
	l.Allow("ip:1")
	if l.Allow("ip:1") {
		t.Fatal("expected third request to be blocked")
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	l := New(1, time.Minute)
	fake := time.Now()
	l.now = func() time.Time { return fake }

	if !l.Allow("ip:1") {
		t.Fatal("expected first request to be allowed")
	}
	if l.Allow("ip:1") {
		t.Fatal("expected second request within window to be blocked")
	}

	fake = fake.Add(time.Minute + time.Second)
	if !l.Allow("ip:1") {
		t.Fatal("expected request after window to be allowed")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("ip:1") {
		t.Fatal("expected ip:1 first request to be allowed")
	}
	if !l.Allow("ip:2") {
		t.Fatal("expected ip:2 to have its own independent bucket")
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("ip:1")
	l.Reset()
	if !l.Allow("ip:1") {
		t.Fatal("expected Reset to clear tracked buckets")
	}
}
