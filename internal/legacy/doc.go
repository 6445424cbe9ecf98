// Package legacy reads and writes the flat-file data directory of the first
// TSN server: userlist.txt plus, per user, followers.txt and timeline.txt.
//
// Timeline records are "author|body|time|" with time in the
// "%d-%m-%Y %H-%M-%S" layout. A backslash escapes the next byte, so | \ and
// newlines may appear inside fields. Legacy timestamps have second
// precision; sub-second parts are lost on export.
package legacy
