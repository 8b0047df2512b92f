package cli

import (
	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/agerating/internal/session"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Upload a file, wait for its analysis and print the checklist",
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

			sess.Select(session.FileSource(args[0]))
			err := sess.Submit(cmd.Context())
			if werr := out.write(cmd.OutOrStdout(), sess.State(), a.cfg.Categories); werr != nil {
				return werr
			}
			return err
		},
	}
	out.register(cmd)
	return cmd
}
