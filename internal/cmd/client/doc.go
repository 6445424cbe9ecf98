// Package client provides the `tsn client` command-line client.
//
// The CLI talks to the TSN gRPC endpoint. The address is read from the
// TSN_GRPC environment variable (default 127.0.0.1:12021) and the acting
// user from --user/-u.
//
// Usage
//
//	tsn client -u alice create-user
//	tsn client -u bob follow alice
//	tsn client -u bob unfollow alice
//	tsn client -u bob list
//	tsn client -u bob timeline [--filter 'author == "alice"']
//	tsn client -u bob shell
//
// timeline first registers the user (an existing registration is fine),
// then posts every stdin line and prints incoming posts as
//
//	alice (Mon Jan  2 15:04:05 2006) >> hello
//
// until stdin closes and the server ends the session. shell reads
// FOLLOW <user>, UNFOLLOW <user>, LIST and TIMELINE from stdin.
package client
