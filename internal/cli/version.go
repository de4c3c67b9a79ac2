package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the beaverport release.
const Version = "1.0.0"

const modulePath = "github.com/mesh-intelligence/beaverport"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the beaverport version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "beaverport v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
