package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "status TASK_ID",
		Short: "Wait for an already submitted task and print the checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession()
			if out.expand != "" {
				cat, err := a.resolveCategory(out.expand)
				if err != nil {
					return err
				}
				sess.Toggle(cat)
			}

			err := sess.Track(cmd.Context(), args[0])
			if werr := out.write(cmd.OutOrStdout(), sess.State(), a.cfg.Categories); werr != nil {
				return werr
			}
			return err
		},
	}
	out.register(cmd)
	return cmd
}
