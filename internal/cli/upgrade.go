package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
	"github.com/mesh-intelligence/beaverport/internal/upgrade"
)

func newUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <input> <output>",
		Short: "Convert an old export file to the current schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpgrade(args[0], args[1])
		},
	}
}

func (a *app) runUpgrade(input, output string) error {
	data, err := exportfile.Read(input)
	if err != nil {
		return withCode(exitUsage, err)
	}
	export, report, err := upgrade.Load(data, true)
	if err != nil {
		return err
	}
	a.log.WithField("from", report.FromVersion).Info("Upgraded export")
	for _, s := range report.Synthetic {
		printNote(a.errOut, s.Note())
	}

	if err := a.confirmOverwrite(output); err != nil {
		return err
	}
	if err := exportfile.Save(output, export, true); err != nil {
		return err
	}
	printDone(a.errOut, "Upgraded data written to "+output)
	return nil
}

// confirmOverwrite asks before an existing output file is replaced.
func (a *app) confirmOverwrite(path string) error {
	if !exportfile.Exists(path) {
		return nil
	}
	if err := a.confirm(fmt.Sprintf("%s already exists. Overwrite?", path)); err != nil {
		return withCode(exitUsage, fmt.Errorf("%w: %s", exportfile.ErrExists, path))
	}
	return nil
}
