package crawler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// DefaultSchedule runs ingestion once a day at 03:00.
var DefaultSchedule = "0 0 3 * * *"

// Schedule invokes fn on the 6-field cron spec until ctx is done.  A tick
// arriving while the previous invocation is still running is dropped.  It
// returns only once any in-flight invocation has finished.
func Schedule(ctx context.Context, spec string, fn func(ctx context.Context)) error {
	if spec == "" {
		spec = DefaultSchedule
	}

	var (
		running int32
		mu      sync.Mutex
		stopped bool
		wg      sync.WaitGroup
	)

	c := cron.New()
	err := c.AddFunc(spec, func() {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			log.WithField("schedule", spec).Warn("Previous run still active, skipping tick")
			return
		}
		defer atomic.StoreInt32(&running, 0)

		mu.Lock()
		if stopped || ctx.Err() != nil {
			mu.Unlock()
			return
		}
		wg.Add(1)
		mu.Unlock()
		defer wg.Done()

		fn(ctx)
	})
	if err != nil {
		return err
	}

	log.WithField("schedule", spec).Info("Starting scheduler")
	c.Start()
	<-ctx.Done()
	c.Stop()

	mu.Lock()
	stopped = true
	mu.Unlock()
	if atomic.LoadInt32(&running) == 1 {
		log.WithField("schedule", spec).Info("Waiting for active run to finish")
	}
	wg.Wait()

	log.WithField("schedule", spec).Info("Scheduler stopped")
	return nil
}
