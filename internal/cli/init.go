package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
	"github.com/mesh-intelligence/beaverport/internal/sqlite"
	"github.com/mesh-intelligence/beaverport/internal/upgrade"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [export-file]",
		Short: "Create the sandbox",
		Long: "Create the local sandbox database. When an export file is given, its\n" +
			"account, organizations and organization subjects are copied into the\n" +
			"sandbox so that imports of that export can be rehearsed offline.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.Backend != types.BackendSQLite {
				return withCode(exitUsage, errors.New("init needs --sandbox or backend: sqlite"))
			}

			sb := sqlite.NewBackend(a.log)
			if err := sb.Attach(cfg); err != nil {
				return fmt.Errorf("initialize sandbox: %w", err)
			}
			defer sb.Detach()

			if len(args) == 1 {
				data, err := exportfile.Read(args[0])
				if err != nil {
					return withCode(exitUsage, err)
				}
				export, _, err := upgrade.Load(data, false)
				if err != nil {
					return err
				}
				if _, err := sb.Seed(cmd.Context(), export); err != nil {
					return err
				}
			}
			printDone(a.errOut, "Sandbox ready in "+cfg.DataDir)
			return nil
		},
	}
}
