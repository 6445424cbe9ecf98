// Package timeline stores posts in per-user append-only logs.
//
// Each post is written as one eventlog record: the header carries the
// timestamp in milliseconds (used by retention) and the payload is the post
// in protobuf wire format.
package timeline
