package timelinesvc

import (
	"context"
	"errors"

	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/metrics"
	"github.com/EvModder/438-TSN/internal/timeline"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// acceptance resolves once the author's own append for a post finished.
// Follower appends of that post wait on it and are dropped when it failed.
type acceptance struct {
	done chan struct{}
	err  error
}

func newAcceptance() *acceptance { return &acceptance{done: make(chan struct{})} }

func (a *acceptance) resolve(err error) {
	a.err = err
	close(a.done)
}

type appendJob struct {
	post timeline.Post
	own  bool
	gate *acceptance
}

type pushJob struct {
	ch   *delivery.Channel
	post timeline.Post
}

// lane is one recipient's ordered work. Appends run in acceptance order;
// each appended post is then pushed to the channel that was live at append
// time. Pushes run on their own goroutine so a full channel never holds up
// the recipient's log.
type lane struct {
	appends   []appendJob
	pushes    []pushJob
	appending bool
	pushing   bool
}

func (l *lane) idle() bool { return !l.appending && !l.pushing }

// enqueueAppend must be called with s.mu held and s.closed false, so the
// lane order is the acceptance order.
func (s *Service) enqueueAppend(recipient string, j appendJob) {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	l := s.lanes[recipient]
	if l == nil {
		l = &lane{}
		s.lanes[recipient] = l
	}
	l.appends = append(l.appends, j)
	if !l.appending {
		l.appending = true
		s.fanouts.Add(1)
		go s.runAppends(recipient, l)
	}
}

func (s *Service) enqueuePush(recipient string, l *lane, j pushJob) {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	l.pushes = append(l.pushes, j)
	if !l.pushing {
		l.pushing = true
		s.fanouts.Add(1)
		go s.runPushes(recipient, l)
	}
}

func (s *Service) nextAppend(recipient string, l *lane) (appendJob, bool) {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	if len(l.appends) == 0 {
		l.appending = false
		if l.idle() {
			delete(s.lanes, recipient)
		}
		return appendJob{}, false
	}
	j := l.appends[0]
	l.appends[0] = appendJob{}
	l.appends = l.appends[1:]
	return j, true
}

func (s *Service) nextPush(recipient string, l *lane) (pushJob, bool) {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	if len(l.pushes) == 0 {
		l.pushing = false
		if l.idle() {
			delete(s.lanes, recipient)
		}
		return pushJob{}, false
	}
	j := l.pushes[0]
	l.pushes[0] = pushJob{}
	l.pushes = l.pushes[1:]
	return j, true
}

func (s *Service) runAppends(recipient string, l *lane) {
	defer s.fanouts.Done()
	ctx := context.Background()
	for {
		j, ok := s.nextAppend(recipient, l)
		if !ok {
			return
		}
		if j.own {
			j.gate.resolve(s.appendOwn(ctx, j.post))
			continue
		}
		<-j.gate.done
		if j.gate.err != nil {
			continue
		}
		if ch, ok := s.deliver(ctx, recipient, j.post); ok && ch != nil {
			s.enqueuePush(recipient, l, pushJob{ch: ch, post: j.post})
		}
	}
}

func (s *Service) runPushes(recipient string, l *lane) {
	defer s.fanouts.Done()
	ctx := context.Background()
	for {
		j, ok := s.nextPush(recipient, l)
		if !ok {
			return
		}
		s.push(ctx, recipient, j)
	}
}

func (s *Service) appendOwn(ctx context.Context, p timeline.Post) error {
	_ = s.appendSem.Acquire(ctx, 1)
	defer s.appendSem.Release(1)
	unlock := s.recipients.Lock(p.Author)
	defer unlock()
	if err := s.appendPost(ctx, p.Author, p); err != nil {
		return domainErr("append", p.Author, err)
	}
	return nil
}

// deliver appends p to recipient's timeline and, under the same recipient
// lock, captures the live channel that must receive it. ok is false when
// the append failed.
func (s *Service) deliver(ctx context.Context, recipient string, p timeline.Post) (*delivery.Channel, bool) {
	_ = s.appendSem.Acquire(ctx, 1)
	defer s.appendSem.Release(1)
	unlock := s.recipients.Lock(recipient)
	defer unlock()

	if err := s.appendPost(ctx, recipient, p); err != nil {
		s.metrics.FanoutAppend(metrics.ResultError)
		s.logger.Error("fanout: append",
			logpkg.Str("recipient", recipient), logpkg.Str("author", p.Author), logpkg.Err(err))
		return nil, false
	}
	s.metrics.FanoutAppend(metrics.ResultOK)

	ch := s.reg.LiveChannelOf(recipient)
	if ch == nil {
		s.metrics.LivePush(metrics.ResultOffline)
	}
	return ch, true
}

func (s *Service) push(ctx context.Context, recipient string, j pushJob) {
	if err := j.ch.Push(ctx, j.post); err != nil {
		s.metrics.LivePush(metrics.ResultDropped)
		if errors.Is(err, delivery.ErrSlowConsumer) {
			s.reg.Disconnect(recipient, j.ch)
			s.logger.Warn("slow consumer disconnected",
				logpkg.Str("user", recipient), logpkg.Str("session", j.ch.ID()))
		}
		return
	}
	s.metrics.LivePush(metrics.ResultDelivered)
}
