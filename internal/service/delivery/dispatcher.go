package delivery

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/odinnomago/valhalla-notify/internal/channel"
	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
	"github.com/odinnomago/valhalla-notify/pkg/circuitbreaker"
	"github.com/odinnomago/valhalla-notify/pkg/logger"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

// Enqueuer accepts notifications for external-channel delivery.
type Enqueuer interface {
	Enqueue(n *model.Notification)
}

type DispatcherConfig struct {
	Shards         int
	QueueSize      int
	ChannelTimeout time.Duration
	PrefsCacheTTL  time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Shards:         8,
		QueueSize:      256,
		ChannelTimeout: 10 * time.Second,
		PrefsCacheTTL:  time.Minute,
	}
}

// Dispatcher fans notifications out to external channels. Jobs are
// sharded by user ID onto worker goroutines, so a single user's
// deliveries run in submission order while different users proceed in
// parallel. A channel failure is logged and counted; it never stops the
// other channels and never reaches the producer.
type Dispatcher struct {
	prefs    repository.PreferenceRepository
	senders  map[channel.Channel]channel.Sender
	breakers map[channel.Channel]*circuitbreaker.CircuitBreaker
	cache    *gocache.Cache
	config   DispatcherConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics

	shards []chan *model.Notification
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewDispatcher(
	prefs repository.PreferenceRepository,
	senders []channel.Sender,
	config DispatcherConfig,
	lg *logger.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	if config.Shards <= 0 {
		config.Shards = DefaultDispatcherConfig().Shards
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if config.ChannelTimeout <= 0 {
		config.ChannelTimeout = DefaultDispatcherConfig().ChannelTimeout
	}
	if config.PrefsCacheTTL <= 0 {
		config.PrefsCacheTTL = DefaultDispatcherConfig().PrefsCacheTTL
	}

	byChannel := make(map[channel.Channel]channel.Sender, len(senders))
	breakers := make(map[channel.Channel]*circuitbreaker.CircuitBreaker, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
		breakers[s.Channel()] = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        string(s.Channel()) + "-sender",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		})
	}

	return &Dispatcher{
		prefs:    prefs,
		senders:  byChannel,
		breakers: breakers,
		cache:    gocache.New(config.PrefsCacheTTL, 5*time.Minute),
		config:   config,
		logger:   lg,
		metrics:  m,
		now:      time.Now,
	}
}

// Start spawns the shard workers. They drain until Stop is called or
// ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.shards = make([]chan *model.Notification, d.config.Shards)
	for i := range d.shards {
		d.shards[i] = make(chan *model.Notification, d.config.QueueSize)
		d.wg.Add(1)
		go d.worker(ctx, d.shards[i])
	}
}

// Stop closes the shard queues and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	for _, ch := range d.shards {
		close(ch)
	}
	d.wg.Wait()
}

// Enqueue queues a notification for delivery. A full shard drops the
// job rather than blocking the producer.
func (d *Dispatcher) Enqueue(n *model.Notification) {
	shard := d.shards[shardFor(n.UserID, len(d.shards))]
	select {
	case shard <- n:
		d.metrics.DeliveryQueueLag.Inc()
	default:
		d.metrics.DeliveryDropped.Inc()
		d.logger.ZL.Warn().
			Str("notification_id", n.ID).
			Str("user_id", n.UserID).
			Msg("delivery queue full, dropping job")
	}
}

// InvalidatePrefs discards the cached preferences for a user, called
// after a preference update so the next delivery sees fresh settings.
func (d *Dispatcher) InvalidatePrefs(userID string) {
	d.cache.Delete(userID)
}

func (d *Dispatcher) worker(ctx context.Context, jobs <-chan *model.Notification) {
	defer d.wg.Done()
	for {
		select {
		case n, ok := <-jobs:
			if !ok {
				return
			}
			d.metrics.DeliveryQueueLag.Dec()
			d.deliver(ctx, n)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *model.Notification) {
	prefs, err := d.preferences(ctx, n.UserID)
	if err != nil {
		d.logger.ZL.Error().Err(err).
			Str("notification_id", n.ID).
			Str("user_id", n.UserID).
			Msg("failed to load preferences, skipping delivery")
		return
	}

	for _, ch := range Decide(n, prefs, d.now()) {
		d.send(ctx, ch, n)
	}
}

func (d *Dispatcher) send(ctx context.Context, ch channel.Channel, n *model.Notification) {
	sender, ok := d.senders[ch]
	if !ok {
		return
	}

	timer := prometheus.NewTimer(d.metrics.DeliveryLatency.WithLabelValues(string(ch)))
	defer timer.ObserveDuration()

	sendCtx, cancel := context.WithTimeout(ctx, d.config.ChannelTimeout)
	defer cancel()

	err := d.breakers[ch].Execute(func() error {
		return sender.Send(sendCtx, n)
	})
	if err != nil {
		d.metrics.Deliveries.WithLabelValues(string(ch), "failure").Inc()
		d.logger.ZL.Error().Err(err).
			Str("notification_id", n.ID).
			Str("user_id", n.UserID).
			Str("channel", string(ch)).
			Msg("channel delivery failed")
		return
	}
	d.metrics.Deliveries.WithLabelValues(string(ch), "success").Inc()
}

func (d *Dispatcher) preferences(ctx context.Context, userID string) (*model.Preferences, error) {
	if cached, ok := d.cache.Get(userID); ok {
		return cached.(*model.Preferences), nil
	}
	prefs, err := d.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(userID, prefs)
	return prefs, nil
}

func shardFor(userID string, shards int) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % uint32(shards))
}
