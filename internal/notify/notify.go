package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todoboard/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const channelPrefix = "todoboard:"

// Channel names the pub/sub channel for one board.
func Channel(board string) string {
	if board == "" {
		board = "default"
	}
	return channelPrefix + board
}

// Message is one committed batch as broadcast to other clients.
type Message struct {
	Origin string      `json:"origin"`
	SentAt time.Time   `json:"sentAt"`
	Batch  model.Batch `json:"batch"`
}

// Dial connects to the redis URL (redis://[:password@]host:port/db) and checks
// the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rc, nil
}

// Notifier publishes and receives batches on a redis channel.
type Notifier struct {
	rc      *redis.Client
	channel string
	origin  string
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(rc *redis.Client, channel, origin string, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{rc: rc, channel: channel, origin: origin, log: log, now: time.Now}
}

func (n *Notifier) Origin() string { return n.origin }

func (n *Notifier) Publish(ctx context.Context, b model.Batch) error {
	data, err := json.Marshal(Message{Origin: n.origin, SentAt: n.now().UTC(), Batch: b})
	if err != nil {
		return err
	}
	return n.rc.Publish(ctx, n.channel, data).Err()
}

// Subscription is a confirmed channel subscription.
type Subscription struct {
	ps  *redis.PubSub
	ch  <-chan *redis.Message
	log logrus.FieldLogger
}

// Subscribe returns once redis has confirmed the subscription, so nothing
// published after it returns is missed.
func (n *Notifier) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := n.rc.Subscribe(ctx, n.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	return &Subscription{ps: ps, ch: ps.Channel(), log: n.log}, nil
}

var errClosed = errors.New("subscription closed")

// Next blocks for the next well-formed message. Malformed payloads are logged
// and skipped.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case raw, ok := <-s.ch:
			if !ok {
				return Message{}, errClosed
			}
			var m Message
			if err := json.Unmarshal([]byte(raw.Payload), &m); err != nil {
				s.log.WithError(err).WithField("channel", raw.Channel).Warn("unable to parse batch")
				continue
			}
			return m, nil
		}
	}
}

func (s *Subscription) Close() error { return s.ps.Close() }

// Listen hands every message to fn until ctx is done, resubscribing when the
// connection drops. Messages this notifier published itself are skipped when
// skipOwn is set.
func (n *Notifier) Listen(ctx context.Context, skipOwn bool, fn func(Message)) error {
	for {
		sub, err := n.Subscribe(ctx)
		if err == nil {
			err = n.pump(ctx, sub, skipOwn, fn)
			_ = sub.Close()
		}
		if ctx.Err() != nil {
			return nil
		}
		n.log.WithError(err).Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (n *Notifier) pump(ctx context.Context, sub *Subscription, skipOwn bool, fn func(Message)) error {
	for {
		m, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		if skipOwn && m.Origin == n.origin {
			continue
		}
		fn(m)
	}
}
