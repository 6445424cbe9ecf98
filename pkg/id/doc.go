// Package id provides the 128-bit, lexicographically sortable identifiers
// used for posts and follow edges.
//
// An ID is 16 bytes big-endian: [8 bytes unix ms][8 bytes sequence], so
// byte order is time order and IDs from the same millisecond still increase.
//
// A Generator never goes backwards within a process. When the clock
// regresses it keeps the last millisecond and bumps the sequence. At builds
// an ID from explicit parts, for data whose order is already known (legacy
// imports use the line number as the sequence).
//
// IDs render as 32 hex characters, in String and in JSON.
//
//	g := id.NewGenerator()
//	postID := g.Next()
//	back, _ := id.Parse(postID.String())
package id
