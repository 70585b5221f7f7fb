package crawler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleSkipsOverlappingTicks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scheduler test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	var calls int32
	err := Schedule(ctx, "* * * * * *", func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
		// Outlive every following tick.
		<-ctx.Done()
	})
	if err != nil {
		t.Fatal(err)
	}

	if expected, actual := int32(1), atomic.LoadInt32(&calls); actual != expected {
		t.Errorf("Expected calls=%v but actual=%v", expected, actual)
	}
}

func TestScheduleInvalidSpec(t *testing.T) {
	if err := Schedule(context.Background(), "not a schedule", func(context.Context) {}); err == nil {
		t.Error("Expected error for invalid cron spec")
	}
}

func TestScheduleWaitsForActiveRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scheduler test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		started  = make(chan struct{})
		finished int32
	)
	go func() {
		<-started
		cancel()
	}()

	err := Schedule(ctx, "* * * * * *", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		// Keep writing after cancellation.
		time.Sleep(500 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	if err != nil {
		t.Fatal(err)
	}

	if expected, actual := int32(1), atomic.LoadInt32(&finished); actual != expected {
		t.Errorf("Expected active run to finish before return, finished=%v", actual)
	}
}
