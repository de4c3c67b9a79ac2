// Package cli implements the beaverport command-line interface.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/beaverport/internal/paths"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	api       string
	email     string
	username  string
	password  string
	sandbox   string
	logLevel  string
	yes       bool
}

// app carries the state shared by the commands of one invocation.
type app struct {
	flags rootFlags
	v     *viper.Viper
	log   *logrus.Logger

	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	// readPassword prompts for a password when none is configured.
	readPassword func() (string, error)
}

func newApp() *app {
	a := &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
		log:    logrus.New(),
	}
	a.readPassword = a.promptPassword
	return a
}

// NewRootCmd creates the top-level "beaverport" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "beaverport",
		Short: "Export, upgrade and import beaverlog data",
		Long: "beaverport moves time-tracking data between beaverlog accounts.\n" +
			"It exports an account, upgrades old export files to the current schema\n" +
			"and imports them into another account or a local sandbox.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.api, "api", "", "API base URL (default: "+defaultAPI()+")")
	pf.StringVarP(&a.flags.email, "email", "e", "", "login email")
	pf.StringVarP(&a.flags.username, "username", "u", "", "login username")
	pf.StringVarP(&a.flags.password, "password", "p", "", "login password (prompted when empty)")
	pf.StringVar(&a.flags.sandbox, "sandbox", "", "use the local sandbox in `DIR` instead of the API")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")
	pf.BoolVarP(&a.flags.yes, "yes", "y", false, "answer yes to every confirmation")
	root.MarkFlagsMutuallyExclusive("email", "username")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newUpgradeCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newClearCmd(a))

	return root
}

// setup loads the configuration and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if err := bindFlags(v, cmd); err != nil {
		return withCode(exitInternal, err)
	}
	a.v = v

	level, err := logrus.ParseLevel(v.GetString(cfgKeyLogLevel))
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("log level: %w", err))
	}
	a.log.SetOutput(a.errOut)
	a.log.SetLevel(level)
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		code := exitCode(err)
		printFatal(a.errOut, err)
		os.Exit(code)
	}
}
