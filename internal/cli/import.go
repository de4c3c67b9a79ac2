package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
	"github.com/mesh-intelligence/beaverport/internal/importer"
	"github.com/mesh-intelligence/beaverport/internal/upgrade"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

type importFlags struct {
	parentIDMap string
	whitelist   string
	blacklist   string
}

func newImportCmd(a *app) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import <input>",
		Short: "Replace the private data of an account with an export file",
		Long: "Import an export file into an account. All private data of the account\n" +
			"is deleted first. Exports of the old schema are upgraded on the fly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if err := opts.Validate(); err != nil {
				return withCode(exitUsage, err)
			}
			return a.runImport(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&f.parentIDMap, "parent-id-map", "", `JSON object rewriting subject parents, e.g. '{"old": "new", "gone": null}'`)
	cmd.Flags().StringVar(&f.whitelist, "whitelist", "", `JSON list of top-level subject names to import, e.g. '["Work"]'`)
	cmd.Flags().StringVar(&f.blacklist, "blacklist", "", `JSON list of top-level subject names to skip`)
	return cmd
}

func (f importFlags) options() (importer.Options, error) {
	var opts importer.Options
	if err := decodeFlag("parent-id-map", f.parentIDMap, &opts.ParentIDMap); err != nil {
		return opts, err
	}
	if err := decodeFlag("whitelist", f.whitelist, &opts.Whitelist); err != nil {
		return opts, err
	}
	if err := decodeFlag("blacklist", f.blacklist, &opts.Blacklist); err != nil {
		return opts, err
	}
	return opts, nil
}

func decodeFlag(name, value string, v any) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return fmt.Errorf("--%s: %w", name, err)
	}
	return nil
}

func (a *app) runImport(cmd *cobra.Command, input string, opts importer.Options) (err error) {
	data, err := exportfile.Read(input)
	if err != nil {
		return withCode(exitUsage, err)
	}
	export, report, err := upgrade.Load(data, false)
	if err != nil {
		return err
	}
	if report.FromVersion != types.CurrentAPIVersion {
		a.log.WithField("from", report.FromVersion).Info("Upgraded export on the fly")
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

	if s.sandbox != nil {
		if _, err := s.sandbox.Seed(ctx, export); err != nil {
			return err
		}
	}

	opts.Logger = a.log
	prep, err := importer.Prepare(ctx, s.target, export, opts)
	if err != nil {
		return err
	}

	if err := a.confirm(fmt.Sprintf("This deletes ALL private data of %s before importing. Continue?", s.name)); err != nil {
		return err
	}
	a.log.Info("Removing private data")
	if err := s.target.ClearAllPrivateData(ctx); err != nil {
		return err
	}

	res, err := prep.Run(ctx)
	if err != nil {
		return err
	}

	for _, syn := range report.Synthetic {
		printNote(a.errOut, syn.Note())
	}
	if res.DroppedActivities > 0 {
		printNote(a.errOut, fmt.Sprintf("Skipped %d activities of filtered subjects.", res.DroppedActivities))
	}
	printDone(a.errOut, "Imported "+summary(res)+" into "+s.name)
	return nil
}

func summary(res *importer.Result) string {
	parts := make([]string, 0, len(res.Created))
	for _, entity := range types.ImportOrder {
		parts = append(parts, fmt.Sprintf("%d %s", res.Created[entity], entity))
	}
	return strings.Join(parts, ", ")
}
