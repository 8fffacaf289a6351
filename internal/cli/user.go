package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sirpyerre/postbox/internal/app"
)

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Administer accounts",
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user and all of their posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			ctx := cmd.Context()
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Auth.DeleteUser(ctx, id); err != nil {
				return err
			}
			printf(cmd, "user %d deleted\n", id)
			return nil
		},
	}

	userCmd.AddCommand(deleteCmd)
	return userCmd
}
