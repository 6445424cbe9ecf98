// Package graph stores the directed follow graph in Pebble.
//
// Each edge is written twice in one batch, once under the followed user
// (for fan-out) and once under the follower (for listing and export).
// Mutations for the same followed user are serialized so the existence
// check and the write are atomic.
package graph
