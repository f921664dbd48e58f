package propagation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeResolver counts lookups and delegates to fn
type fakeResolver struct {
	calls int
	fn    func(call int) ([]string, error)
}

func (f *fakeResolver) LookupTXT(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.fn(f.calls)
}

func TestWaitZeroTimeoutSkipsPolling(t *testing.T) {
	resolver := &fakeResolver{fn: func(int) ([]string, error) {
		return []string{"abc123"}, nil
	}}

	start := time.Now()
	observed := Wait(context.Background(), resolver, "_acme-challenge.example.com", "abc123", 10*time.Millisecond, 0)
	elapsed := time.Since(start)

	if observed {
		t.Error("Expected observed=false with zero timeout")
	}
	if resolver.calls != 0 {
		t.Errorf("Expected zero DNS queries, got %d", resolver.calls)
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("Expected immediate return, took %v", elapsed)
	}
}

func TestWaitObservesMatch(t *testing.T) {
	resolver := &fakeResolver{fn: func(int) ([]string, error) {
		return []string{"other-value", "abc123"}, nil
	}}

	observed := Wait(context.Background(), resolver, "_acme-challenge.example.com", "abc123", 5*time.Millisecond, time.Second)

	if !observed {
		t.Error("Expected observed=true on first matching lookup")
	}
	if resolver.calls != 1 {
		t.Errorf("Expected exactly one query, got %d", resolver.calls)
	}
}

func TestWaitSubstringMatch(t *testing.T) {
	// Resolver output may carry quoting artifacts around the value
	resolver := &fakeResolver{fn: func(int) ([]string, error) {
		return []string{`"abc123"`}, nil
	}}

	if !Wait(context.Background(), resolver, "_acme-challenge.example.com", "abc123", 5*time.Millisecond, time.Second) {
		t.Error("Expected substring match on quoted TXT value")
	}
}

func TestWaitTimesOut(t *testing.T) {
	interval := 10 * time.Millisecond
	timeout := 55 * time.Millisecond

	resolver := &fakeResolver{fn: func(int) ([]string, error) {
		return []string{"never-the-right-value"}, nil
	}}

	start := time.Now()
	observed := Wait(context.Background(), resolver, "_acme-challenge.example.com", "abc123", interval, timeout)
	elapsed := time.Since(start)

	if observed {
		t.Error("Expected observed=false when the value never appears")
	}
	// Terminates within timeout + interval (plus scheduling slack)
	if elapsed > timeout+interval+100*time.Millisecond {
		t.Errorf("Wait took %v, expected at most about %v", elapsed, timeout+interval)
	}
	// At least floor(timeout/interval) queries
	if minQueries := int(timeout / interval); resolver.calls < minQueries {
		t.Errorf("Expected at least %d queries, got %d", minQueries, resolver.calls)
	}
}

func TestWaitRetriesResolverErrors(t *testing.T) {
	// Transient lookup failures count as "no match this round"
	resolver := &fakeResolver{fn: func(call int) ([]string, error) {
		if call < 3 {
			return nil, fmt.Errorf("temporary failure in name resolution")
		}
		return []string{"abc123"}, nil
	}}

	observed := Wait(context.Background(), resolver, "_acme-challenge.example.com", "abc123", 5*time.Millisecond, time.Second)

	if !observed {
		t.Error("Expected observed=true after transient errors")
	}
	if resolver.calls != 3 {
		t.Errorf("Expected three queries, got %d", resolver.calls)
	}
}

func TestWaitContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeResolver{fn: func(int) ([]string, error) {
		return []string{"abc123"}, nil
	}}

	if Wait(ctx, resolver, "_acme-challenge.example.com", "abc123", time.Hour, time.Hour) {
		t.Error("Expected observed=false on cancelled context")
	}
	if resolver.calls != 0 {
		t.Errorf("Expected zero queries after cancellation, got %d", resolver.calls)
	}
}

func TestNewResolverHasServers(t *testing.T) {
	resolver := NewResolver()
	if len(resolver.servers) == 0 {
		t.Error("Expected at least one nameserver (fallback included)")
	}
}
