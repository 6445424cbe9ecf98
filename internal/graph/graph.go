package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/EvModder/438-TSN/internal/keylock"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	"github.com/EvModder/438-TSN/pkg/id"
)

var (
	ErrAlreadyExists = errors.New("graph: already following")
	ErrNotFollowing  = errors.New("graph: not following")
	// ErrInvalidTarget covers self-follows and unregistered users on either end.
	ErrInvalidTarget = errors.New("graph: invalid target")
)

// Directory answers whether a handle is registered.
type Directory interface {
	IsKnown(name string) bool
}

// Keyspace:
//   - g/fr/{followed}\x00{follower} -> edge id (followers index)
//   - g/fg/{follower}\x00{followed} -> edge id (following index)
//
// The edge id is time ordered and gives FollowersOf its insertion order.
var (
	followersPrefix = []byte("g/fr/")
	followingPrefix = []byte("g/fg/")
)

func edgeKey(prefix []byte, a, b string) []byte {
	k := make([]byte, 0, len(prefix)+len(a)+len(b)+1)
	k = append(k, prefix...)
	k = append(k, a...)
	k = append(k, 0x00)
	k = append(k, b...)
	return k
}

func scanPrefix(prefix []byte, user string) []byte {
	k := make([]byte, 0, len(prefix)+len(user)+1)
	k = append(k, prefix...)
	k = append(k, user...)
	return append(k, 0x00)
}

// Graph is the durable directed follow graph.
type Graph struct {
	db    *pebblestore.DB
	dir   Directory
	ids   *id.Generator
	locks keylock.Map
}

func New(db *pebblestore.DB, dir Directory) *Graph {
	return &Graph{db: db, dir: dir, ids: id.NewGenerator()}
}

func (g *Graph) validate(follower, followed string) error {
	if follower == followed {
		return fmt.Errorf("%w: %q can not follow themselves", ErrInvalidTarget, follower)
	}
	if !g.dir.IsKnown(followed) {
		return fmt.Errorf("%w: %q is not registered", ErrInvalidTarget, followed)
	}
	if !g.dir.IsKnown(follower) {
		return fmt.Errorf("%w: %q is not registered", ErrInvalidTarget, follower)
	}
	return nil
}

// Add records follower -> followed durably.
func (g *Graph) Add(ctx context.Context, follower, followed string) error {
	if err := g.validate(follower, followed); err != nil {
		return err
	}
	unlock := g.locks.Lock(followed)
	defer unlock()

	fwd := edgeKey(followersPrefix, followed, follower)
	exists, err := g.db.Has(fwd)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	edge := g.ids.Next()
	b := g.db.NewBatch()
	defer b.Close()
	if err := b.Set(fwd, edge[:], nil); err != nil {
		return err
	}
	if err := b.Set(edgeKey(followingPrefix, follower, followed), edge[:], nil); err != nil {
		return err
	}
	return g.db.CommitBatch(ctx, b)
}

// Remove deletes follower -> followed durably.
func (g *Graph) Remove(ctx context.Context, follower, followed string) error {
	if err := g.validate(follower, followed); err != nil {
		return err
	}
	unlock := g.locks.Lock(followed)
	defer unlock()

	fwd := edgeKey(followersPrefix, followed, follower)
	exists, err := g.db.Has(fwd)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFollowing
	}
	b := g.db.NewBatch()
	defer b.Close()
	if err := b.Delete(fwd, nil); err != nil {
		return err
	}
	if err := b.Delete(edgeKey(followingPrefix, follower, followed), nil); err != nil {
		return err
	}
	return g.db.CommitBatch(ctx, b)
}

func (g *Graph) IsFollowing(follower, followed string) (bool, error) {
	return g.db.Has(edgeKey(followersPrefix, followed, follower))
}

// FollowersOf lists user's followers in the order they followed.
func (g *Graph) FollowersOf(user string) ([]string, error) {
	return g.list(followersPrefix, user)
}

// FollowingOf lists who user follows, in the order they were followed.
func (g *Graph) FollowingOf(user string) ([]string, error) {
	return g.list(followingPrefix, user)
}

type edge struct {
	name string
	id   []byte
}

func (g *Graph) list(prefix []byte, user string) ([]string, error) {
	p := scanPrefix(prefix, user)
	var edges []edge
	err := g.db.ScanPrefix(p, func(k, v []byte) bool {
		edges = append(edges, edge{name: string(k[len(p):]), id: bytes.Clone(v)})
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if c := bytes.Compare(edges[i].id, edges[j].id); c != 0 {
			return c < 0
		}
		return edges[i].name < edges[j].name
	})
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.name
	}
	return out, nil
}
