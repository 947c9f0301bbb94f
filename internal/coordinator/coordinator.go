// Package coordinator owns the per-city runtime state: the cached
// snapshot, the in-flight collection cycle, live subscribers and the poll
// ticker that keeps streamed cities fresh.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/weather-consensus/internal/weather"
)

// subscriberBuffer is the per-subscriber channel capacity; a subscriber
// that falls this far behind starts skipping snapshots.
const subscriberBuffer = 8

// CityResolver resolves raw city input; geo.Resolver satisfies it.
type CityResolver interface {
	Resolve(ctx context.Context, rawInput string) weather.CityInfo
}

// Collector runs one collection cycle; weather.Service satisfies it.
type Collector interface {
	Collect(ctx context.Context, city weather.CityInfo) *weather.CitySnapshot
}

// Options tune the coordinator's timing behavior.
type Options struct {
	// StaleAfter is how long a cached snapshot satisfies non-forced reads.
	StaleAfter time.Duration
	// PollInterval is the forced-refresh cadence while a city has
	// subscribers.
	PollInterval time.Duration
	// CycleTimeout bounds one collection cycle. Cycles run on a background
	// context so a caller's disconnect cannot abort a shared cycle.
	CycleTimeout time.Duration
}

// Coordinator serializes collection cycles per city and fans results out
// to subscribers. All concurrent callers arriving during a cycle share its
// result.
type Coordinator struct {
	resolver  CityResolver
	collector Collector
	opts      Options

	mu     sync.Mutex
	cities map[string]*cityState
}

type cityState struct {
	key   string
	query string

	snapshot  *weather.CitySnapshot
	updatedAt time.Time

	inflight    *inflight
	subscribers map[string]chan *weather.CitySnapshot
	pollCancel  context.CancelFunc
}

// inflight is one running collection cycle. snap is set before done is
// closed, so waiters may read it after the close.
type inflight struct {
	done chan struct{}
	snap *weather.CitySnapshot
}

func New(resolver CityResolver, collector Collector, opts Options) *Coordinator {
	return &Coordinator{
		resolver:  resolver,
		collector: collector,
		opts:      opts,
		cities:    make(map[string]*cityState),
	}
}

// Snapshot returns a snapshot for the city. A fresh cached snapshot is
// served as is unless force is set; otherwise the caller joins the
// in-flight cycle or starts one. The only error is the caller's context
// expiring while a cycle is still running.
func (c *Coordinator) Snapshot(ctx context.Context, rawCity string, force bool) (*weather.CitySnapshot, error) {
	city := c.resolver.Resolve(ctx, rawCity)

	c.mu.Lock()
	state := c.stateLocked(city.Key)
	state.query = city.Query

	if !force && state.snapshot != nil && time.Since(state.updatedAt) < c.opts.StaleAfter {
		snap := state.snapshot
		c.mu.Unlock()
		return snap, nil
	}

	fl := state.inflight
	if fl == nil {
		fl = &inflight{done: make(chan struct{})}
		state.inflight = fl
		go c.runCycle(state, city, fl)
	}
	c.mu.Unlock()

	select {
	case <-fl.done:
		return fl.snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runCycle performs one collection cycle, stores the result and broadcasts
// it to the city's subscribers.
func (c *Coordinator) runCycle(state *cityState, city weather.CityInfo, fl *inflight) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.CycleTimeout)
	defer cancel()

	snap := c.collector.Collect(ctx, city)

	c.mu.Lock()
	state.snapshot = snap
	state.updatedAt = time.Now()
	state.inflight = nil
	for _, ch := range state.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	c.mu.Unlock()

	fl.snap = snap
	close(fl.done)
}

// Subscription is one live stream attachment. Updates delivers every
// snapshot produced for the city and is closed by Close once buffered
// events are drained.
type Subscription struct {
	ID      string
	CityKey string
	Updates <-chan *weather.CitySnapshot

	closeOnce sync.Once
	closeFn   func()
}

// Close detaches the subscriber; the city's poll ticker stops when the
// last subscriber leaves.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.closeFn)
}

// Subscribe attaches a subscriber to the city. The cached snapshot, when
// present, is delivered immediately; otherwise exactly one forced refresh
// is triggered and its result arrives as the first event. The first
// subscriber starts the city's poll ticker.
func (c *Coordinator) Subscribe(ctx context.Context, rawCity string) *Subscription {
	city := c.resolver.Resolve(ctx, rawCity)

	c.mu.Lock()
	state := c.stateLocked(city.Key)
	state.query = city.Query

	id := uuid.NewString()
	ch := make(chan *weather.CitySnapshot, subscriberBuffer)
	state.subscribers[id] = ch

	if len(state.subscribers) == 1 {
		c.startPollingLocked(state)
	}

	cached := state.snapshot
	if cached != nil {
		// The buffer is empty at registration, so this cannot block.
		// Delivering under the lock keeps the initial event ahead of any
		// broadcast from a cycle finishing concurrently.
		ch <- cached
	}
	query := state.query
	c.mu.Unlock()

	if cached == nil {
		go func() {
			if _, err := c.Snapshot(context.Background(), query, true); err != nil {
				log.Printf("initial refresh failed for %s: %v", city.Key, err)
			}
		}()
	}

	return &Subscription{
		ID:      id,
		CityKey: city.Key,
		Updates: ch,
		closeFn: func() { c.unsubscribe(city.Key, id) },
	}
}

func (c *Coordinator) unsubscribe(cityKey, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.cities[cityKey]
	if !ok {
		return
	}
	ch, ok := state.subscribers[id]
	if !ok {
		return
	}
	delete(state.subscribers, id)
	// Sends happen under c.mu and only to registered channels.
	close(ch)
	if len(state.subscribers) == 0 && state.pollCancel != nil {
		state.pollCancel()
		state.pollCancel = nil
	}
}

// SubscriberCount reports the city's live subscriber count.
func (c *Coordinator) SubscriberCount(cityKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.cities[cityKey]; ok {
		return len(state.subscribers)
	}
	return 0
}

func (c *Coordinator) stateLocked(cityKey string) *cityState {
	state, ok := c.cities[cityKey]
	if !ok {
		state = &cityState{
			key:         cityKey,
			query:       cityKey,
			subscribers: make(map[string]chan *weather.CitySnapshot),
		}
		c.cities[cityKey] = state
	}
	return state
}

func (c *Coordinator) startPollingLocked(state *cityState) {
	if state.pollCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	state.pollCancel = cancel

	go func() {
		ticker := time.NewTicker(c.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				query := state.query
				c.mu.Unlock()
				if _, err := c.Snapshot(ctx, query, true); err != nil {
					log.Printf("polling refresh failed for %s: %v", state.key, err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
