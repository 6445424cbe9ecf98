package legacy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/EvModder/438-TSN/internal/graph"
	"github.com/EvModder/438-TSN/internal/registry"
	"github.com/EvModder/438-TSN/internal/timeline"
	"github.com/EvModder/438-TSN/pkg/id"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Stats counts what an import or export touched.
type Stats struct {
	Users   int
	Follows int
	Posts   int
	Skipped int
}

// Migrator moves data between the legacy directory layout and the stores.
type Migrator struct {
	Registry *registry.Registry
	Graph    *graph.Graph
	Store    *timeline.Store
	Logger   logpkg.Logger
	// Location interprets and renders legacy timestamps. Defaults to time.Local.
	Location *time.Location
}

func (m *Migrator) loc() *time.Location {
	if m.Location == nil {
		return time.Local
	}
	return m.Location
}

func (m *Migrator) logger() logpkg.Logger {
	if m.Logger == nil {
		return logpkg.NewNopLogger()
	}
	return m.Logger
}

// safeDirName reports whether user can be used as a single path element.
func safeDirName(user string) bool {
	return filepath.IsLocal(user) && filepath.Base(user) == user
}

func readRecords(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitLines(string(b)), nil
}

// Import loads dir into the stores. Users are imported first, then follow
// edges, then every user's timeline in file order. Existing users and edges
// are kept; invalid entries are skipped and counted.
func (m *Migrator) Import(ctx context.Context, dir string) (Stats, error) {
	var st Stats
	log := m.logger()
	names, err := readRecords(filepath.Join(dir, UserListFile))
	if err != nil {
		return st, fmt.Errorf("legacy: read user list: %w", err)
	}
	now := time.Now().UnixMilli()
	var users []string
	for _, raw := range names {
		name := Unescape(raw)
		err := m.Registry.Import(registry.Meta{Name: name, CreatedAtMs: now})
		switch {
		case err == nil:
			st.Users++
		case errors.Is(err, registry.ErrAlreadyExists):
		case errors.Is(err, registry.ErrInvalidName):
			log.Warn("legacy import: skipping user", logpkg.Str("user", name), logpkg.Err(err))
			st.Skipped++
			continue
		default:
			return st, err
		}
		users = append(users, name)
	}

	for _, user := range users {
		if !safeDirName(user) {
			continue
		}
		followers, err := readRecords(filepath.Join(dir, user, FollowersFile))
		if err != nil {
			return st, fmt.Errorf("legacy: read followers of %s: %w", user, err)
		}
		for _, raw := range followers {
			follower := Unescape(raw)
			err := m.Graph.Add(ctx, follower, user)
			switch {
			case err == nil:
				st.Follows++
			case errors.Is(err, graph.ErrAlreadyExists):
			case errors.Is(err, graph.ErrInvalidTarget):
				log.Warn("legacy import: skipping edge",
					logpkg.Str("follower", follower), logpkg.Str("followed", user), logpkg.Err(err))
				st.Skipped++
			default:
				return st, err
			}
		}
	}

	for _, user := range users {
		if !safeDirName(user) {
			continue
		}
		n, skipped, err := m.importTimeline(ctx, dir, user)
		st.Posts += n
		st.Skipped += skipped
		if err != nil {
			return st, err
		}
	}
	log.Info("legacy import done",
		logpkg.Str("dir", dir), logpkg.Int("users", st.Users), logpkg.Int("follows", st.Follows),
		logpkg.Int("posts", st.Posts), logpkg.Int("skipped", st.Skipped))
	return st, nil
}

func (m *Migrator) importTimeline(ctx context.Context, dir, user string) (int, int, error) {
	records, err := readRecords(filepath.Join(dir, user, TimelineFile))
	if err != nil {
		return 0, 0, fmt.Errorf("legacy: read timeline of %s: %w", user, err)
	}
	posts, skipped := 0, 0
	for i, rec := range records {
		l, err := ParseLine(rec, m.loc())
		if err != nil {
			m.logger().Warn("legacy import: skipping post",
				logpkg.Str("user", user), logpkg.Int("line", i+1), logpkg.Err(err))
			skipped++
			continue
		}
		p := timeline.Post{
			ID:        id.At(l.Time.UnixMilli(), uint64(i)),
			Author:    l.Author,
			Body:      l.Body,
			Timestamp: l.Time,
		}
		if _, err := m.Store.Append(ctx, user, p); err != nil {
			return posts, skipped, err
		}
		posts++
	}
	return posts, skipped, nil
}

const exportPage = 512

// Export writes every user, their followers and their full timeline to dir
// in the legacy layout.
func (m *Migrator) Export(ctx context.Context, dir string) (Stats, error) {
	var st Stats
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return st, err
	}
	users := m.Registry.AllKnownUsers()
	if err := writeFile(filepath.Join(dir, UserListFile), func(w *bufio.Writer) error {
		for _, u := range users {
			if _, err := w.WriteString(Escape(u, '\n') + "\n"); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return st, err
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if !safeDirName(user) {
			m.logger().Warn("legacy export: user is not a valid directory name", logpkg.Str("user", user))
			st.Skipped++
			continue
		}
		st.Users++
		udir := filepath.Join(dir, user)
		if err := os.MkdirAll(udir, 0o755); err != nil {
			return st, err
		}
		followers, err := m.Graph.FollowersOf(user)
		if err != nil {
			return st, err
		}
		if err := writeFile(filepath.Join(udir, FollowersFile), func(w *bufio.Writer) error {
			for _, f := range followers {
				if _, err := w.WriteString(Escape(f, '\n') + "\n"); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return st, err
		}
		st.Follows += len(followers)

		n, err := m.exportTimeline(user, filepath.Join(udir, TimelineFile))
		st.Posts += n
		if err != nil {
			return st, err
		}
	}
	return st, nil
}

func (m *Migrator) exportTimeline(user, path string) (int, error) {
	n := 0
	err := writeFile(path, func(w *bufio.Writer) error {
		var from uint64
		for {
			entries, next, err := m.Store.Read(user, from, exportPage)
			if err != nil {
				return err
			}
			for _, e := range entries {
				line := FormatLine(Line{Author: e.Author, Body: e.Body, Time: e.Timestamp}, m.loc())
				if _, err := w.WriteString(line + "\n"); err != nil {
					return err
				}
				n++
			}
			if next == 0 || len(entries) == 0 {
				return nil
			}
			from = next
		}
	})
	return n, err
}

func writeFile(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
