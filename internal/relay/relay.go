package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"propertyops/internal/event"
	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/gammazero/workerpool"
)

// Config tunes the background retry loop.
type Config struct {
	BatchSize       int
	Interval        time.Duration
	Workers         int
	MaxAttempts     int
	Backoff         time.Duration // base delay, doubled per attempt
	ClaimLease      time.Duration
	DispatchTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Backoff <= 0 {
		c.Backoff = 30 * time.Second
	}
	if c.ClaimLease <= 0 {
		c.ClaimLease = time.Minute
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 10 * time.Second
	}
}

// Relay periodically claims FAILED events whose retry time has come and
// redispatches them through the router. Claiming leases the rows (their
// next_attempt_at moves forward), so multiple relay instances can run
// against the same database without double delivery.
type Relay struct {
	cfg    Config
	events repository.EventRepository
	router *event.Router

	pool *workerpool.WorkerPool
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(cfg Config, events repository.EventRepository, router *event.Router) *Relay {
	cfg.applyDefaults()
	return &Relay{
		cfg:    cfg,
		events: events,
		router: router,
		pool:   workerpool.New(cfg.Workers),
		done:   make(chan struct{}),
	}
}

// Start launches the polling loop. Call Close to stop it.
func (r *Relay) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.runOnce(context.Background())
			}
		}
	}()
}

// Close stops polling and waits for in-flight redeliveries to finish.
func (r *Relay) Close() {
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.pool.StopWait()
	})
}

// runOnce claims one batch and fans it out to the worker pool. Exposed to
// tests via the package; production code only reaches it through Start.
func (r *Relay) runOnce(ctx context.Context) {
	claimed, err := r.events.ClaimFailed(ctx, r.cfg.BatchSize, r.cfg.ClaimLease)
	if err != nil {
		log.Printf("relay: claim failed: %v", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	var batch sync.WaitGroup
	for _, ev := range claimed {
		ev := ev
		batch.Add(1)
		r.pool.Submit(func() {
			defer batch.Done()
			r.redeliver(ctx, ev)
		})
	}
	batch.Wait()
}

func (r *Relay) redeliver(ctx context.Context, ev model.DomainEvent) {
	if ev.Attempts >= r.cfg.MaxAttempts {
		if err := r.events.MarkDead(ctx, ev.ID, ev.LastError); err != nil {
			log.Printf("relay: event %s: failed to mark dead: %v", ev.ID, err)
		} else {
			log.Printf("relay: event %s (%s) exhausted %d attempts, parked", ev.ID, ev.EventType, ev.Attempts)
		}
		return
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, r.cfg.DispatchTimeout)
	err := r.router.Dispatch(dispatchCtx, ev)
	cancel()

	if err == nil {
		if markErr := r.events.MarkProcessed(ctx, ev.ID); markErr != nil {
			log.Printf("relay: event %s processed but status update failed: %v", ev.ID, markErr)
		}
		return
	}

	next := time.Now().Add(r.backoffFor(ev.Attempts + 1))
	if markErr := r.events.MarkFailed(ctx, ev.ID, err.Error(), next); markErr != nil {
		log.Printf("relay: event %s: failed to record retry: %v", ev.ID, markErr)
	}
}

// backoffFor doubles the base delay per completed attempt, capped at one hour.
func (r *Relay) backoffFor(attempts int) time.Duration {
	d := r.cfg.Backoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d > time.Hour {
			return time.Hour
		}
	}
	return d
}
