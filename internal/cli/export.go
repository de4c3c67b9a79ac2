package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <output>",
		Short: "Download all data of an account into an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			output := args[0]
			if err := a.confirmOverwrite(output); err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(ctx); cerr != nil && err == nil {
					err = cerr
				}
			}()

			export, err := exportfile.Build(ctx, s.target, s.userID, a.now(), a.log)
			if err != nil {
				return err
			}
			if err := exportfile.Save(output, export, true); err != nil {
				return err
			}
			printDone(a.errOut, "Exported "+s.name+" to "+output)
			return nil
		},
	}
}
