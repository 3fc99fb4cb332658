package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petrijr/nodeflux/internal/config"
	"github.com/petrijr/nodeflux/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Self-describing processing nodes for a visual workflow editor",
		Long: `nodeflux hosts a catalogue of processing nodes. Each node declares the
shape of the data it accepts and produces, so the workflow editor can render
forms and validate input without per-node knowledge.

Configuration is read from nodeflux.yaml, NODEFLUX_* environment variables
and the flags below, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is nodeflux.yaml in ., $HOME/.config/nodeflux, /etc/nodeflux)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newNodesCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration and installs the logger. Logs go to w so that
// stdout stays free for command output and the MCP protocol.
func (a *app) init(w io.Writer) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Init(level, cfg.Log.Format, w)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, version)
			return err
		},
	}
}
