package adminqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/greenbasket/storefront/pkg/eventbus"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/metrics"
)

// Queue names used in events, metrics labels, and the new-items flags.
const (
	QueueTopUps   = "topups"
	QueueProducts = "products"
)

// Poller re-fetches the review queues on an interval and flags growth
// so the admin UI can show a "new items" banner.
type Poller struct {
	topups   TopUpAPI
	products ProductAPI
	bus      eventbus.Bus
	logg     *logger.Logger
	metrics  *metrics.PollerMetrics
	interval time.Duration

	mu       sync.Mutex
	counts   map[string]int
	newItems map[string]bool
}

func NewPoller(topups TopUpAPI, products ProductAPI, bus eventbus.Bus, logg *logger.Logger, pollerMetrics *metrics.PollerMetrics, interval time.Duration) (*Poller, error) {
	if topups == nil {
		return nil, errors.New("top-up client is required")
	}
	if products == nil {
		return nil, errors.New("catalog client is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		topups:   topups,
		products: products,
		bus:      bus,
		logg:     logg,
		metrics:  pollerMetrics,
		interval: interval,
		counts:   make(map[string]int),
		newItems: make(map[string]bool),
	}, nil
}

// Run polls until the context is canceled. The first cycle runs
// immediately so counts are primed before the first tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// HasNewItems reports whether the queue grew since the flag was last
// acknowledged.
func (p *Poller) HasNewItems(queue string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.newItems[queue]
}

// AckNewItems clears the banner flag for one queue.
func (p *Poller) AckNewItems(queue string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.newItems, queue)
}

func (p *Poller) pollOnce(ctx context.Context) {
	p.pollQueue(ctx, QueueTopUps, func() (int, error) {
		requests, err := p.topups.List(ctx)
		return len(requests), err
	})
	p.pollQueue(ctx, QueueProducts, func() (int, error) {
		products, err := p.products.ListProducts(ctx)
		return len(products), err
	})
}

func (p *Poller) pollQueue(ctx context.Context, queue string, fetch func() (int, error)) {
	started := time.Now()
	count, err := fetch()
	p.metrics.ObserveDuration(queue, time.Since(started))
	if err != nil {
		p.metrics.IncFailure(queue)
		if p.logg != nil {
			p.logg.Error(ctx, "queue poll failed", err)
		}
		return
	}
	p.metrics.IncSuccess(queue)

	p.mu.Lock()
	previous, seen := p.counts[queue]
	p.counts[queue] = count
	grew := seen && count > previous
	if grew {
		p.newItems[queue] = true
	}
	p.mu.Unlock()

	if !grew {
		return
	}

	p.metrics.IncGrowth(queue)
	event, err := eventbus.NewEvent(eventbus.TopicQueueGrowth, "", map[string]any{
		"queue":    queue,
		"count":    count,
		"previous": previous,
	})
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "queue growth event build failed", err)
		}
		return
	}
	if err := p.bus.Publish(ctx, event); err != nil && p.logg != nil {
		p.logg.Error(ctx, "queue growth event publish failed", err)
	}
}
