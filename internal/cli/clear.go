package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all private data of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
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

			if err := a.confirm(fmt.Sprintf("Delete ALL private data of %s?", s.name)); err != nil {
				return err
			}
			if err := s.target.ClearAllPrivateData(ctx); err != nil {
				return err
			}
			printDone(a.errOut, "Private data removed")
			return nil
		},
	}
}
