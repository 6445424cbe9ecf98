package timelinesvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	cfgpkg "github.com/EvModder/438-TSN/internal/config"
	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/graph"
	"github.com/EvModder/438-TSN/internal/keylock"
	"github.com/EvModder/438-TSN/internal/metrics"
	"github.com/EvModder/438-TSN/internal/registry"
	"github.com/EvModder/438-TSN/internal/runtime"
	"github.com/EvModder/438-TSN/internal/timeline"
	"github.com/EvModder/438-TSN/pkg/id"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// appendParallelism bounds concurrent timeline appends across all lanes.
const appendParallelism = 16

// Service is the presence-tracked fan-out engine. It accepts posts, appends
// them to the author's and every follower's timeline, and pushes them to
// followers holding a live channel.
//
// Ordering:
//   - acceptance: Post sequences every post under mu and queues it on the
//     author's lane and each follower's lane in one step, so every lane sees
//     posts in acceptance order.
//   - recipients: a keyed lock held around "append + capture live channel"
//     for one timeline, and around "replay snapshot + presence flip" in
//     Connect.
type Service struct {
	reg     *registry.Registry
	graph   *graph.Graph
	store   *timeline.Store
	cfg     cfgpkg.Config
	logger  logpkg.Logger
	metrics *metrics.Metrics
	ids     *id.Generator
	now     func() time.Time

	recipients keylock.Map
	appendSem  *semaphore.Weighted
	appendPost func(ctx context.Context, owner string, p timeline.Post) error

	lanesMu sync.Mutex
	lanes   map[string]*lane

	mu      sync.RWMutex
	closed  bool
	fanouts sync.WaitGroup
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("timelines"))
	}
	s := &Service{
		reg:       rt.Registry(),
		graph:     rt.Graph(),
		store:     rt.Timelines(),
		cfg:       rt.Config(),
		logger:    logger,
		metrics:   rt.Metrics(),
		ids:       id.NewGenerator(),
		now:       time.Now,
		appendSem: semaphore.NewWeighted(appendParallelism),
		lanes:     make(map[string]*lane),
	}
	s.appendPost = func(ctx context.Context, owner string, p timeline.Post) error {
		_, err := s.store.Append(ctx, owner, p)
		return err
	}
	return s
}

// CreateUser registers name. The error is non-nil only for storage failures.
func (s *Service) CreateUser(ctx context.Context, name string) (tsnv1.Status, error) {
	_, err := s.reg.Register(name)
	err = domainErr("register", name, err)
	if err == nil {
		s.logger.Info("user created", logpkg.Str("user", name))
	}
	return s.result(err)
}

// Follow makes follower receive followed's future posts.
func (s *Service) Follow(ctx context.Context, follower, followed string) (tsnv1.Status, error) {
	err := domainErr("follow", follower, s.graph.Add(ctx, follower, followed))
	return s.result(err)
}

// Unfollow removes the follower -> followed edge.
func (s *Service) Unfollow(ctx context.Context, follower, followed string) (tsnv1.Status, error) {
	err := domainErr("unfollow", follower, s.graph.Remove(ctx, follower, followed))
	return s.result(err)
}

// ListUsers returns every known user and the followers of user. An unknown
// user yields FAILURE_NOT_EXISTS with allUsers still filled.
func (s *Service) ListUsers(ctx context.Context, user string) (allUsers, followers []string, st tsnv1.Status, err error) {
	allUsers = s.reg.AllKnownUsers()
	if !s.reg.IsKnown(user) {
		return allUsers, nil, tsnv1.Status_FAILURE_NOT_EXISTS, nil
	}
	followers, err = s.graph.FollowersOf(user)
	if err != nil {
		st, err = s.result(domainErr("followers", user, err))
		return allUsers, nil, st, err
	}
	return allUsers, followers, tsnv1.Status_SUCCESS, nil
}

func (s *Service) result(err error) (tsnv1.Status, error) {
	if IsStorage(err) {
		s.logger.Error("storage failure", logpkg.Err(err))
		return tsnv1.Status_FAILURE_UNKNOWN, err
	}
	return StatusFor(err), nil
}

// ConnectOptions tune one timeline session.
type ConnectOptions struct {
	// Filter is an optional CEL expression applied to replay and live posts.
	Filter string
}

// Connect opens user's live channel. The most recent posts of user's
// timeline are queued first; every later post arrives live. No post is
// delivered twice or skipped across the switch.
func (s *Service) Connect(ctx context.Context, user string, opts ConnectOptions) (*delivery.Channel, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	filter, err := CompileFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	if !s.reg.IsKnown(user) {
		if !s.cfg.AllowAutoRegister {
			return nil, registry.ErrUnknownUser
		}
		if _, err := s.reg.Register(user); err != nil && !errors.Is(err, registry.ErrAlreadyExists) {
			return nil, domainErr("register", user, err)
		}
		s.logger.Info("user auto-registered", logpkg.Str("user", user))
	}

	ch := delivery.New(user, delivery.Options{
		Buffer:      s.cfg.ChannelBuffer,
		PushTimeout: s.cfg.PushTimeout(),
		Filter:      filter,
	})

	unlock, err := s.recipients.LockContext(ctx, user)
	if err != nil {
		return nil, err
	}
	prev, err := s.replayAndRegister(user, ch)
	unlock()
	if errors.Is(err, ErrClosed) {
		ch.Close(delivery.ErrShutdown)
		return nil, err
	}
	if err != nil {
		ch.Close(err)
		return nil, err
	}
	if prev != nil && s.cfg.CloseSupersededSessions {
		prev.Close(delivery.ErrSuperseded)
		s.logger.Info("session superseded",
			logpkg.Str("user", user), logpkg.Str("session", prev.ID()))
	}
	s.logger.Debug("session connected",
		logpkg.Str("user", user), logpkg.Str("session", ch.ID()))
	return ch, nil
}

// replayAndRegister must run under user's recipient lock. Presence is set
// under mu so Close either rejects the session or closes it later.
func (s *Service) replayAndRegister(user string, ch *delivery.Channel) (*delivery.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.cfg.ReplayCount > 0 {
		tail, err := s.store.Tail(user, s.cfg.ReplayCount)
		if err != nil {
			return nil, domainErr("replay", user, err)
		}
		posts := make([]timeline.Post, len(tail))
		for i, e := range tail {
			posts[i] = e.Post
		}
		if err := ch.Preload(posts); err != nil {
			return nil, err
		}
	}
	return s.reg.Connect(user, ch)
}

// Disconnect ends ch. Presence is cleared only while ch is still user's
// current channel.
func (s *Service) Disconnect(user string, ch *delivery.Channel) {
	if ch == nil {
		return
	}
	s.reg.Disconnect(user, ch)
	ch.Close(delivery.ErrClosed)
	s.logger.Debug("session closed",
		logpkg.Str("user", user), logpkg.Str("session", ch.ID()), logpkg.Err(ch.Err()))
}

func (s *Service) validateBody(body string) error {
	if body == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBody)
	}
	if limit := s.cfg.MaxBodyBytes; limit > 0 && len(body) > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidBody, len(body), limit)
	}
	return nil
}

// Post accepts body from author. It returns once the post is durable in the
// author's timeline; delivery to followers continues in the background. Any
// two posts reach every shared recipient in the order they were accepted.
func (s *Service) Post(ctx context.Context, author, body string) (timeline.Post, error) {
	if err := s.validateBody(body); err != nil {
		return timeline.Post{}, err
	}
	if !s.reg.IsKnown(author) {
		return timeline.Post{}, registry.ErrUnknownUser
	}
	p, gate, err := s.accept(author, body)
	if err != nil {
		return timeline.Post{}, err
	}
	select {
	case <-gate.done:
	case <-ctx.Done():
		// The post is already sequenced and lands regardless.
		return timeline.Post{}, ctx.Err()
	}
	if gate.err != nil {
		return timeline.Post{}, gate.err
	}
	s.metrics.PostAccepted()
	return p, nil
}

// accept sequences one post: its id, followers and lane slots are fixed in
// a single critical section.
func (s *Service) accept(author, body string) (timeline.Post, *acceptance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return timeline.Post{}, nil, ErrClosed
	}
	followers, err := s.graph.FollowersOf(author)
	if err != nil {
		return timeline.Post{}, nil, domainErr("followers", author, err)
	}
	p := timeline.Post{ID: s.ids.Next(), Author: author, Body: body, Timestamp: s.now()}
	gate := newAcceptance()
	s.enqueueAppend(author, appendJob{post: p, own: true, gate: gate})
	for _, f := range followers {
		s.enqueueAppend(f, appendJob{post: p, gate: gate})
	}
	s.logger.Debug("post accepted",
		logpkg.Str("author", author),
		logpkg.Stringer("post", p.ID),
		logpkg.Int("followers", len(followers)))
	return p, gate, nil
}

func (s *Service) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close stops accepting posts and sessions, waits for every queued append
// and push, then closes all live channels with delivery.ErrShutdown.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.fanouts.Wait()
	s.reg.CloseAll(delivery.ErrShutdown)
}
