package transports

import (
	"context"
	"time"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
)

// Post is a timeline post as seen by the CLI.
type Post struct {
	ID        string
	Author    string
	Body      string
	Timestamp time.Time
	Replayed  bool
}

// ListResult carries the reply of a ListUsers call.
type ListResult struct {
	AllUsers  []string
	Followers []string
	Status    tsnv1.Status
}

// Session is one open timeline. Send posts a body as the session's user;
// Recv blocks for the next delivered post and returns io.EOF once the server
// ends the session.
type Session interface {
	Send(body string) error
	Recv() (Post, error)
	// CloseSend signals that no more posts will be sent.
	CloseSend() error
	Close() error
}

// SocialTransport abstracts the transport used by the CLI.
type SocialTransport interface {
	CreateUser(ctx context.Context, user string) (tsnv1.Status, error)
	Follow(ctx context.Context, user, target string) (tsnv1.Status, error)
	Unfollow(ctx context.Context, user, target string) (tsnv1.Status, error)
	ListUsers(ctx context.Context, user string) (ListResult, error)
	Timeline(ctx context.Context, user, filter string) (Session, error)
}
