package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"waypoint/execution"

	backend "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	payloadField      = "changed"
	handlerIdentifier = "eventbus"
)

// Bus carries committed changes over a Redis stream. Consumers in one group
// share the stream; a message is acknowledged only after it was handled, so
// delivery is at least once.
type Bus struct {
	client   *backend.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
	retry    time.Duration
	count    int64
	maxLen   int64
}

type Option func(*Bus)

func WithStream(stream string) Option {
	return func(b *Bus) {
		b.stream = stream
	}
}

func WithGroup(group string) Option {
	return func(b *Bus) {
		b.group = group
	}
}

func WithConsumer(consumer string) Option {
	return func(b *Bus) {
		b.consumer = consumer
	}
}

// WithBlock sets how long a read waits for new messages.
func WithBlock(block time.Duration) Option {
	return func(b *Bus) {
		b.block = block
	}
}

// WithRetry sets how often Consume hands unacknowledged messages to the
// handler again; zero only recovers them at start.
func WithRetry(retry time.Duration) Option {
	return func(b *Bus) {
		b.retry = retry
	}
}

// WithMaxLen caps the stream length approximately; zero keeps everything.
func WithMaxLen(maxLen int64) Option {
	return func(b *Bus) {
		b.maxLen = maxLen
	}
}

func New(address, password string, db int, opts ...Option) *Bus {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewFromClient(client *backend.Client, opts ...Option) *Bus {
	host, _ := os.Hostname()
	b := &Bus{
		client:   client,
		stream:   "waypoint:changes",
		group:    "waypoint-notify",
		consumer: host + "-" + strconv.Itoa(os.Getpid()),
		block:    5 * time.Second,
		retry:    30 * time.Second,
		count:    64,
		maxLen:   100000,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromEnv connects to REDIS_ADDR; it returns nil when no address is set.
func NewFromEnv(opts ...Option) (*Bus, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		db = parsed
	}
	return New(addr, os.Getenv("REDIS_PASSWORD"), db, opts...), nil
}

func (b *Bus) Close() error {
	return b.client.Close()
}

func (b *Bus) Publish(ctx context.Context, c *execution.Changed) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	args := &backend.XAddArgs{Stream: b.stream, Values: map[string]interface{}{payloadField: string(data)}}
	if b.maxLen > 0 {
		args.MaxLen = b.maxLen
		args.Approx = true
	}
	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Handler publishes every committed change of a service.
func (b *Bus) Handler() execution.Handler {
	return func(c *execution.Changed) *execution.HandleResult {
		if err := b.Publish(context.Background(), c); err != nil {
			return &execution.HandleResult{Success: false, Message: err.Error(), HandlerIdentifier: handlerIdentifier}
		}
		return &execution.HandleResult{Success: true, HandlerIdentifier: handlerIdentifier}
	}
}

// EnsureGroup creates the consumer group and the stream when missing.
func (b *Bus) EnsureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.stream, b.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create group %s: %w", b.group, err)
	}
	return nil
}

// HandleFunc processes one change; returning an error leaves the message
// pending for redelivery.
type HandleFunc func(ctx context.Context, c *execution.Changed) error

// Recover handles the messages this consumer read earlier but never
// acknowledged, page by page until the pending list is exhausted.
func (b *Bus) Recover(ctx context.Context, handle HandleFunc) (int, error) {
	handled, from := 0, "0"
	for {
		n, last, err := b.read(ctx, from, handle)
		handled += n
		if err != nil || last == "" {
			return handled, err
		}
		from = last
	}
}

// Poll waits for new messages and handles them.
func (b *Bus) Poll(ctx context.Context, handle HandleFunc) (int, error) {
	n, _, err := b.read(ctx, ">", handle)
	return n, err
}

// Consume recovers pending messages and then polls until ctx is done. Messages
// whose handling failed are retried every retry interval.
func (b *Bus) Consume(ctx context.Context, handle HandleFunc) error {
	if err := b.EnsureGroup(ctx); err != nil {
		return err
	}
	if _, err := b.Recover(ctx, handle); err != nil {
		return err
	}
	recovered := time.Now()
	for ctx.Err() == nil {
		if b.retry > 0 && time.Since(recovered) >= b.retry {
			if _, err := b.Recover(ctx, handle); err != nil && ctx.Err() == nil {
				logrus.WithField("stream", b.stream).Warnf("recover changes: %v", err)
			}
			recovered = time.Now()
		}
		if _, err := b.Poll(ctx, handle); err != nil {
			if ctx.Err() != nil {
				break
			}
			logrus.WithField("stream", b.stream).Warnf("read changes: %v", err)
			time.Sleep(time.Second)
		}
	}
	return nil
}

// read handles one page of messages after from. It returns the id of the last
// message of the page, empty when the page was empty.
func (b *Bus) read(ctx context.Context, from string, handle HandleFunc) (int, string, error) {
	streams, err := b.client.XReadGroup(ctx, &backend.XReadGroupArgs{
		Group:    b.group,
		Consumer: b.consumer,
		Streams:  []string{b.stream, from},
		Count:    b.count,
		Block:    b.block,
	}).Result()
	if errors.Is(err, backend.Nil) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}

	handled, last := 0, ""
	for _, s := range streams {
		for _, msg := range s.Messages {
			last = msg.ID
			c, err := decode(msg)
			if err != nil {
				logrus.WithFields(logrus.Fields{"stream": b.stream, "message": msg.ID}).Errorf("drop malformed change: %v", err)
			} else if err := handle(ctx, c); err != nil {
				logrus.WithFields(logrus.Fields{"stream": b.stream, "message": msg.ID, "event": c.Event.ID}).
					Warnf("handle change: %v", err)
				continue
			} else {
				handled++
			}
			if err := b.client.XAck(ctx, b.stream, b.group, msg.ID).Err(); err != nil {
				return handled, last, err
			}
		}
	}
	return handled, last, nil
}

func decode(msg backend.XMessage) (*execution.Changed, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return nil, fmt.Errorf("field %s is missing", payloadField)
	}
	c := &execution.Changed{}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, err
	}
	return c, nil
}

// Pending counts the messages of the group that are not acknowledged yet.
func (b *Bus) Pending(ctx context.Context) (int64, error) {
	p, err := b.client.XPending(ctx, b.stream, b.group).Result()
	if err != nil {
		return 0, err
	}
	return p.Count, nil
}
