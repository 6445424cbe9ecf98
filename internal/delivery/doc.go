// Package delivery implements the per-session outbound queue that carries
// posts from the fan-out engine to a connected user.
//
// A Channel is created by the session that owns it and registered as the
// user's live channel. Fan-out pushes into it; the session's writer drains
// it onto the wire. Closing is idempotent and records a reason (session end,
// supersession, slow consumer, shutdown), which unblocks any pending Push.
package delivery
