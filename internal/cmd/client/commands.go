package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/cmd/client/transports"
)

// userFlag reads the persistent --user flag, falling back to "default".
func userFlag(cmd *cobra.Command) string {
	if u, err := cmd.Flags().GetString("user"); err == nil && u != "" {
		return u
	}
	return "default"
}

func newCreateUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-user",
		Short: "Register the --user handle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := getTransport().CreateUser(cmd.Context(), userFlag(cmd))
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		},
	}
}

func newFollowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user>",
		Short: "Follow another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := getTransport().Follow(cmd.Context(), userFlag(cmd), args[0])
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		},
	}
}

func newUnfollowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <user>",
		Short: "Stop following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := getTransport().Unfollow(cmd.Context(), userFlag(cmd), args[0])
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users and the --user's followers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := getTransport().ListUsers(cmd.Context(), userFlag(cmd))
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), res)
			return printStatus(cmd.OutOrStdout(), res.Status)
		},
	}
}

func newTimelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Join the timeline: stdin lines are posted, incoming posts are printed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			t := getTransport()
			user := userFlag(cmd)
			if err := join(cmd.Context(), t, user); err != nil {
				return err
			}
			return runTimeline(cmd.Context(), t, user, filter, bufio.NewScanner(cmd.InOrStdin()), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over author, body, ts_ms, now_ms")
	return cmd
}

// newShellCommand runs the line-oriented client: FOLLOW <user>,
// UNFOLLOW <user>, LIST and TIMELINE. TIMELINE does not return.
func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive client (FOLLOW, UNFOLLOW, LIST, TIMELINE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, out := cmd.Context(), cmd.OutOrStdout()
			t := getTransport()
			user := userFlag(cmd)
			if err := join(ctx, t, user); err != nil {
				return err
			}
			lines := bufio.NewScanner(cmd.InOrStdin())
			for lines.Scan() {
				verb, arg, _ := strings.Cut(strings.TrimSpace(lines.Text()), " ")
				arg = strings.TrimSpace(arg)
				var err error
				switch strings.ToUpper(verb) {
				case "":
					continue
				case "FOLLOW", "UNFOLLOW":
					var st tsnv1.Status
					if strings.EqualFold(verb, "FOLLOW") {
						st, err = t.Follow(ctx, user, arg)
					} else {
						st, err = t.Unfollow(ctx, user, arg)
					}
					if err == nil {
						_ = printStatus(out, st)
					}
				case "LIST":
					var res transports.ListResult
					if res, err = t.ListUsers(ctx, user); err == nil {
						printList(out, res)
						_ = printStatus(out, res.Status)
					}
				case "TIMELINE":
					return runTimeline(ctx, t, user, arg, lines, out)
				default:
					fmt.Fprintln(out, "unknown command:", verb)
				}
				if err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
			return lines.Err()
		},
	}
}

// join registers user, accepting an existing registration.
func join(ctx context.Context, t transports.SocialTransport, user string) error {
	st, err := t.CreateUser(ctx, user)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if st != tsnv1.Status_SUCCESS && st != tsnv1.Status_FAILURE_ALREADY_EXISTS {
		return fmt.Errorf("connect as %q: %s", user, st)
	}
	return nil
}

func runTimeline(ctx context.Context, t transports.SocialTransport, user, filter string, lines *bufio.Scanner, out io.Writer) error {
	sess, err := t.Timeline(ctx, user, filter)
	if err != nil {
		return err
	}
	defer sess.Close()
	fmt.Fprintln(out, "Now you are in the timeline")

	// Send failures surface through Recv as the stream's status.
	go func() {
		for lines.Scan() {
			if body := strings.TrimSpace(lines.Text()); body != "" {
				if sess.Send(body) != nil {
					return
				}
			}
		}
		_ = sess.CloseSend()
	}()
	for {
		p, err := sess.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatPost(p))
	}
}

func printList(w io.Writer, res transports.ListResult) {
	fmt.Fprintln(w, "All users:", strings.Join(res.AllUsers, ", "))
	fmt.Fprintln(w, "Followers:", strings.Join(res.Followers, ", "))
}
