package delivery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EvModder/438-TSN/internal/timeline"
)

var (
	// ErrClosed is the reason for a channel closed by its own session.
	ErrClosed = errors.New("delivery: channel closed")
	// ErrSuperseded is the reason when a newer connect for the same user replaced the channel.
	ErrSuperseded = errors.New("delivery: superseded by a newer session")
	// ErrSlowConsumer is the reason when a push could not be buffered within the push timeout.
	ErrSlowConsumer = errors.New("delivery: slow consumer")
	// ErrShutdown is the reason when the server is stopping.
	ErrShutdown = errors.New("delivery: server shutting down")
	// ErrReplayOverflow is returned by Preload when the replay does not fit the buffer.
	ErrReplayOverflow = errors.New("delivery: replay exceeds channel buffer")
)

// Defaults used when Options leave a field zero.
const (
	DefaultBuffer      = 256
	DefaultPushTimeout = 5 * time.Second
)

// Message is one post queued for a session.
type Message struct {
	Post timeline.Post
	// Replayed is set for posts delivered from history on connect.
	Replayed bool
}

// Filter decides whether a post is sent on a channel. Nil accepts everything.
type Filter func(timeline.Post) bool

type Options struct {
	Buffer      int
	PushTimeout time.Duration
	Filter      Filter
}

// Channel is the bounded, per-session outbound queue. Producers call Push;
// the owning session drains C until Done is closed. The data channel itself
// is never closed so a late Push can not panic.
type Channel struct {
	id          string
	user        string
	ch          chan Message
	done        chan struct{}
	pushTimeout time.Duration
	filter      Filter

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// New returns an open channel for user.
func New(user string, opts Options) *Channel {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = DefaultPushTimeout
	}
	return &Channel{
		id:          uuid.NewString(),
		user:        user,
		ch:          make(chan Message, opts.Buffer),
		done:        make(chan struct{}),
		pushTimeout: opts.PushTimeout,
		filter:      opts.Filter,
	}
}

// ID is the session identifier.
func (c *Channel) ID() string { return c.id }

// User is the handle the channel delivers to.
func (c *Channel) User() string { return c.user }

// C is the queue drained by the session writer.
func (c *Channel) C() <-chan Message { return c.ch }

// Done is closed once the channel is closed for any reason.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Cap is the buffer capacity.
func (c *Channel) Cap() int { return cap(c.ch) }

// Alive reports whether the channel still accepts pushes.
func (c *Channel) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Err returns the close reason, nil while open.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close marks the channel closed with reason. Only the first call has effect.
func (c *Channel) Close(reason error) {
	if reason == nil {
		reason = ErrClosed
	}
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = reason
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Channel) accepts(p timeline.Post) bool {
	return c.filter == nil || c.filter(p)
}

// Preload queues replayed posts without blocking. It fails with
// ErrReplayOverflow, queuing nothing, when they do not fit the free buffer.
func (c *Channel) Preload(posts []timeline.Post) error {
	if !c.Alive() {
		return c.Err()
	}
	msgs := make([]Message, 0, len(posts))
	for _, p := range posts {
		if c.accepts(p) {
			msgs = append(msgs, Message{Post: p, Replayed: true})
		}
	}
	if len(msgs) > cap(c.ch)-len(c.ch) {
		return ErrReplayOverflow
	}
	for _, m := range msgs {
		c.ch <- m
	}
	return nil
}

// Push queues p for live delivery. Posts rejected by the filter are dropped
// silently. A push that can not be buffered within the push timeout closes
// the channel with ErrSlowConsumer. A closed channel returns its close reason
// immediately.
func (c *Channel) Push(ctx context.Context, p timeline.Post) error {
	if !c.Alive() {
		return c.Err()
	}
	if !c.accepts(p) {
		return nil
	}
	m := Message{Post: p}
	select {
	case c.ch <- m:
		return nil
	default:
	}

	timer := time.NewTimer(c.pushTimeout)
	defer timer.Stop()
	select {
	case c.ch <- m:
		return nil
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		c.Close(ErrSlowConsumer)
		return ErrSlowConsumer
	}
}
