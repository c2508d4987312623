package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-core/internal/api/metrics"
	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

const (
	defaultWorkers     = 4
	channelBuffer      = 256
	defaultMaxAttempts = 5
	defaultBaseBackoff = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// CartCleanupDispatcher retries cart removals that failed after a receipt was
// committed. Only the checked-out version of the cart is removed, so a cart
// saved after the checkout survives. User IDs are routed to a fixed set of
// workers by consistent hashing, so cleanups for one user never run
// concurrently.
type CartCleanupDispatcher struct {
	workers     []chan domain.CartVersion
	carts       ports.CartRepository
	log         zerolog.Logger
	maxAttempts int
	baseBackoff time.Duration
}

var _ ports.CartCleaner = (*CartCleanupDispatcher)(nil)

// NewCartCleanupDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCartCleanupDispatcher(numWorkers int, carts ports.CartRepository, log zerolog.Logger) *CartCleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &CartCleanupDispatcher{
		workers:     make([]chan domain.CartVersion, numWorkers),
		carts:       carts,
		log:         log,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CartVersion, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *CartCleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// ScheduleCartCleanup queues the user's cart for removal. It never blocks the
// caller: when the worker's buffer is full the request is dropped and logged.
func (d *CartCleanupDispatcher) ScheduleCartCleanup(version domain.CartVersion) {
	idx := d.shardIndex(version.UserID)
	select {
	case d.workers[idx] <- version:
		metrics.CartCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.CartCleanupTotal.WithLabelValues("dropped").Inc()
		d.log.Error().Str("user_id", version.UserID).Str("cart_id", version.CartID).Int("worker_id", idx).Msg("cart cleanup queue full, dropping")
	}
}

// shardIndex maps a user ID deterministically to a worker index.
func (d *CartCleanupDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *CartCleanupDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CartVersion) {
	depth := metrics.CartCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case version, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.cleanup(ctx, id, version)
		}
	}
}

// cleanup retries DeleteVersion with exponential backoff until it succeeds,
// attempts run out, or ctx is cancelled. A cart that is gone or was replaced
// since the checkout counts as done.
func (d *CartCleanupDispatcher) cleanup(ctx context.Context, workerID int, version domain.CartVersion) {
	userID := version.UserID
	backoff := d.baseBackoff
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		deleted, err := d.carts.DeleteVersion(ctx, version)
		if err == nil {
			result := "deleted"
			if !deleted {
				result = "superseded"
			}
			metrics.CartCleanupTotal.WithLabelValues(result).Inc()
			d.log.Info().Str("user_id", userID).Int("attempt", attempt).Str("result", result).Msg("cart cleanup done")
			return
		}

		if attempt == d.maxAttempts {
			metrics.CartCleanupTotal.WithLabelValues("failed").Inc()
			d.log.Error().Err(err).
				Str("user_id", userID).
				Int("worker_id", workerID).
				Int("attempts", attempt).
				Msg("cart cleanup failed, giving up")
			return
		}

		metrics.CartCleanupTotal.WithLabelValues("retry").Inc()
		d.log.Warn().Err(err).Str("user_id", userID).Int("attempt", attempt).Dur("backoff", backoff).Msg("cart cleanup failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
