package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/EvModder/438-TSN/internal/delivery"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
)

var (
	ErrAlreadyExists = errors.New("registry: user already exists")
	ErrInvalidName   = errors.New("registry: invalid username")
	ErrUnknownUser   = errors.New("registry: unknown user")
)

// DefaultMaxHandleLength bounds handle size in bytes.
const DefaultMaxHandleLength = 64

// Meta is the persisted record of a registered user.
type Meta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

var userPrefix = []byte("user/")

func userKey(name string) []byte {
	k := make([]byte, 0, len(userPrefix)+len(name))
	k = append(k, userPrefix...)
	k = append(k, name...)
	return k
}

// ValidateHandle reports ErrInvalidName for empty, oversized, non-UTF-8 or
// control-character-bearing handles. maxLen <= 0 uses DefaultMaxHandleLength.
func ValidateHandle(name string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxHandleLength
	}
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxLen)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: control character", ErrInvalidName)
	}
	return nil
}

type Options struct {
	MaxHandleLength int
	// Now is the clock used for CreatedAtMs. Defaults to time.Now.
	Now func() time.Time
}

// Registry owns the set of known users and the presence map. One RWMutex
// guards both maps; no disk or network I/O happens while it is held.
type Registry struct {
	db     *pebblestore.DB
	maxLen int
	now    func() time.Time

	mu       sync.RWMutex
	known    map[string]Meta
	pending  map[string]struct{}
	presence map[string]*delivery.Channel
}

// Open loads every persisted user from db.
func Open(db *pebblestore.DB, opts Options) (*Registry, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Registry{
		db:       db,
		maxLen:   opts.MaxHandleLength,
		now:      opts.Now,
		known:    make(map[string]Meta),
		pending:  make(map[string]struct{}),
		presence: make(map[string]*delivery.Channel),
	}
	var decodeErr error
	err := db.ScanPrefix(userPrefix, func(k, v []byte) bool {
		var m Meta
		if err := json.Unmarshal(v, &m); err != nil {
			decodeErr = fmt.Errorf("registry: decode %q: %w", k, err)
			return false
		}
		r.known[m.Name] = m
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("registry: load users: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return r, nil
}

// Register validates and durably records a new user.
func (r *Registry) Register(name string) (Meta, error) {
	if err := ValidateHandle(name, r.maxLen); err != nil {
		return Meta{}, err
	}
	m := Meta{Name: name, CreatedAtMs: r.now().UnixMilli()}
	if err := r.record(m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// record persists m unless the name is known or already being recorded.
func (r *Registry) record(m Meta) error {
	r.mu.Lock()
	_, exists := r.known[m.Name]
	_, inflight := r.pending[m.Name]
	if exists || inflight {
		r.mu.Unlock()
		return ErrAlreadyExists
	}
	r.pending[m.Name] = struct{}{}
	r.mu.Unlock()

	err := r.persist(m)

	r.mu.Lock()
	delete(r.pending, m.Name)
	if err == nil {
		r.known[m.Name] = m
	}
	r.mu.Unlock()
	return err
}

func (r *Registry) persist(m Meta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.db.Set(userKey(m.Name), b); err != nil {
		return fmt.Errorf("registry: persist %q: %w", m.Name, err)
	}
	return nil
}

// Import records a user with an explicit creation time. Existing users are
// left untouched and reported as ErrAlreadyExists.
func (r *Registry) Import(m Meta) error {
	if err := ValidateHandle(m.Name, r.maxLen); err != nil {
		return err
	}
	return r.record(m)
}

func (r *Registry) IsKnown(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[name]
	return ok
}

// Lookup returns the stored record for name.
func (r *Registry) Lookup(name string) (Meta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.known[name]
	return m, ok
}

// AllKnownUsers returns every registered handle in ascending order.
func (r *Registry) AllKnownUsers() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.known))
	for name := range r.known {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Connect makes ch the live channel for user and returns the channel it
// replaced, if any. The caller decides what to do with the superseded one.
func (r *Registry) Connect(user string, ch *delivery.Channel) (*delivery.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[user]; !ok {
		return nil, ErrUnknownUser
	}
	prev := r.presence[user]
	r.presence[user] = ch
	if prev == ch {
		prev = nil
	}
	return prev, nil
}

// Disconnect clears user's presence only while ch is still the current
// channel. It reports whether the entry was cleared.
func (r *Registry) Disconnect(user string, ch *delivery.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.presence[user]; ok && cur == ch {
		delete(r.presence, user)
		return true
	}
	return false
}

// LiveChannelOf returns user's channel, or nil when offline. A registered
// channel that has already closed counts as offline.
func (r *Registry) LiveChannelOf(user string) *delivery.Channel {
	r.mu.RLock()
	ch := r.presence[user]
	r.mu.RUnlock()
	if ch == nil || !ch.Alive() {
		return nil
	}
	return ch
}

// OnlineCount is the number of users with a live channel.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ch := range r.presence {
		if ch.Alive() {
			n++
		}
	}
	return n
}

// CloseAll closes every live channel with reason and empties the presence map.
func (r *Registry) CloseAll(reason error) {
	r.mu.Lock()
	chans := make([]*delivery.Channel, 0, len(r.presence))
	for user, ch := range r.presence {
		chans = append(chans, ch)
		delete(r.presence, user)
	}
	r.mu.Unlock()
	for _, ch := range chans {
		ch.Close(reason)
	}
}
