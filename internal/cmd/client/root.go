package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs the `client` command group. TSN_GRPC selects the
// server address.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "client",
		Short: "TSN client commands",
	}
	root.PersistentFlags().StringP("user", "u", "default", "Acting user handle")
	root.AddCommand(
		newCreateUserCommand(),
		newFollowCommand(),
		newUnfollowCommand(),
		newListCommand(),
		newTimelineCommand(),
		newShellCommand(),
	)
	return root
}
