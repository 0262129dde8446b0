package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ExpirationHandler is called with the name of every expired key.
type ExpirationHandler interface {
	HandleExpiredKey(ctx context.Context, key string)
}

// ExpirationListener subscribes to Redis keyevent expiration notifications.
type ExpirationListener struct {
	client    *redis.Client
	channel   string
	handler   ExpirationHandler
	configure bool
	ready     chan struct{}
	log       *logrus.Entry
}

// NewExpirationListener listens on __keyevent@<db>__:expired. When configure
// is set, Run enables the required notify-keyspace-events flags first.
func NewExpirationListener(client *redis.Client, db int, handler ExpirationHandler, configure bool, logger *logrus.Logger) *ExpirationListener {
	if client == nil {
		panic("redis client cannot be nil for ExpirationListener")
	}
	if handler == nil {
		panic("handler cannot be nil for ExpirationListener")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExpirationListener{
		client:    client,
		channel:   fmt.Sprintf("__keyevent@%d__:expired", db),
		handler:   handler,
		configure: configure,
		ready:     make(chan struct{}),
		log:       logger.WithField("component", "expiration_listener"),
	}
}

// Ready is closed once the subscription is confirmed.
func (l *ExpirationListener) Ready() <-chan struct{} {
	return l.ready
}

// Run processes notifications one at a time until ctx is cancelled.
func (l *ExpirationListener) Run(ctx context.Context) error {
	if l.configure {
		if err := l.enableNotifications(ctx); err != nil {
			// Managed Redis often forbids CONFIG; the flags may be set server side.
			l.log.WithError(err).Warn("Could not enable keyspace expiration notifications")
		}
	}

	pubsub := l.client.Subscribe(ctx, l.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay: failed to subscribe to %s: %w", l.channel, err)
	}
	close(l.ready)
	l.log.WithField("channel", l.channel).Info("Expiration listener started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			l.log.Info("Expiration listener stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("relay: channel %s: %w", l.channel, ErrSubscriptionClosed)
			}
			l.dispatch(ctx, msg.Payload)
		}
	}
}

func (l *ExpirationListener) dispatch(ctx context.Context, key string) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("key", key).Errorf("Expiration handler panicked: %v", r)
		}
	}()
	l.handler.HandleExpiredKey(ctx, key)
}

// enableNotifications adds the E (keyevent) and x (expired) flags to the
// server's notify-keyspace-events without dropping flags already set.
func (l *ExpirationListener) enableNotifications(ctx context.Context) error {
	current := ""
	vals, err := l.client.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		return fmt.Errorf("redis: config get notify-keyspace-events: %w", err)
	}
	if len(vals) == 2 {
		if s, ok := vals[1].(string); ok {
			current = s
		}
	}
	flags := current
	hasAll := strings.Contains(current, "A")
	if !strings.Contains(flags, "E") {
		flags += "E"
	}
	if !hasAll && !strings.Contains(flags, "x") {
		flags += "x"
	}
	if flags == current {
		return nil
	}
	if err := l.client.ConfigSet(ctx, "notify-keyspace-events", flags).Err(); err != nil {
		return fmt.Errorf("redis: config set notify-keyspace-events %q: %w", flags, err)
	}
	l.log.WithField("flags", flags).Info("Enabled keyspace expiration notifications")
	return nil
}
