package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers = 10
	messageTimeout = 10 * time.Second
)

// Subscriber receives every room channel and dispatches decoded events to
// a Handler on a fixed number of workers.
type Subscriber struct {
	client  *redis.Client
	pattern string
	handler Handler
	workers int
	ready   chan struct{}
	log     *logrus.Entry
}

// NewSubscriber creates a Subscriber for all channels under keyPrefix.
func NewSubscriber(client *redis.Client, keyPrefix string, handler Handler, workers int, logger *logrus.Logger) *Subscriber {
	if client == nil {
		panic("redis client cannot be nil for Subscriber")
	}
	if handler == nil {
		panic("handler cannot be nil for Subscriber")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Subscriber{
		client:  client,
		pattern: RoomChannel(keyPrefix, "*"),
		handler: handler,
		workers: workers,
		ready:   make(chan struct{}),
		log:     logger.WithField("component", "relay_subscriber"),
	}
}

// Ready is closed once the pattern subscription is confirmed.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// Run subscribes and processes messages until ctx is cancelled. In-flight
// messages are drained before it returns.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.PSubscribe(ctx, s.pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay: failed to subscribe to %s: %w", s.pattern, err)
	}
	close(s.ready)
	s.log.WithFields(logrus.Fields{"pattern": s.pattern, "workers": s.workers}).Info("Relay subscriber started")

	var pool errgroup.Group
	pool.SetLimit(s.workers)
	defer func() { _ = pool.Wait() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Relay subscriber stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("relay: pattern %s: %w", s.pattern, ErrSubscriptionClosed)
			}
			channel, payload := msg.Channel, msg.Payload
			// Blocks while all workers are busy.
			pool.Go(func() error {
				s.handleMessage(ctx, channel, payload)
				return nil
			})
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, channel, payload string) {
	logCtx := s.log.WithField("channel", channel)
	defer func() {
		if r := recover(); r != nil {
			logCtx.Errorf("Relay handler panicked: %v", r)
		}
	}()

	event, err := Decode([]byte(payload))
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			logCtx.WithError(err).Debug("Dropping unknown relay event")
		} else {
			logCtx.WithError(err).Warn("Dropping malformed relay message")
		}
		return
	}

	msgCtx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()
	if err := Dispatch(msgCtx, s.handler, event); err != nil {
		logCtx.WithError(err).WithFields(logrus.Fields{"event": event.Name(), "room_code": event.Room()}).
			Error("Relay event handling failed")
	}
}
