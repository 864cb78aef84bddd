package ratelimit

import "testing"

func TestAllowConsumesBucket(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("request %d denied with tokens remaining", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatalf("allowed past capacity with zero refill")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first request for a denied")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("a over capacity")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("b should have its own bucket")
	}
}
