package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryguy/webview"
	"github.com/cryguy/webview/internal/config"
	"github.com/cryguy/webview/internal/journal"
	"github.com/cryguy/webview/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// hostCommands holds subcommands for hosts that need a build tag.
var hostCommands []func(*app) *cobra.Command

// app is the state shared by all subcommands.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *zap.Logger
	journal *journal.Journal
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "wvbridge",
		Short:         "Call native Go functions from page JavaScript",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./wvbridge.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.Bool("journal", false, "record every bridge call in the journal database")
	flags.Bool("minify", false, "minify generated bridge scripts")
	flags.Bool("debug", false, "enable developer tools on hosts that have them")
	_ = a.v.BindPFlag("logger.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logger.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("journal.enabled", flags.Lookup("journal"))
	_ = a.v.BindPFlag("page.minify", flags.Lookup("minify"))
	_ = a.v.BindPFlag("page.debug", flags.Lookup("debug"))

	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newChromeCmd(a),
		newJournalCmd(a),
		newVersionCmd(),
	)
	for _, newCmd := range hostCommands {
		root.AddCommand(newCmd(a))
	}
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = observability.NewStderrLogger(cfg.Logger)
	a.log.Debug("configuration loaded", zap.String("file", a.v.ConfigFileUsed()))
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.journal != nil {
		err = a.journal.Close()
		a.journal = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

// bridgeConfig returns the library configuration, opening the journal
// when it is enabled.
func (a *app) bridgeConfig() (webview.Config, error) {
	var sink webview.Journal
	if a.cfg.Journal.Enabled {
		j, err := a.openJournal()
		if err != nil {
			return webview.Config{}, err
		}
		sink = j
	}
	return a.cfg.Bridge(a.log, sink), nil
}

func (a *app) openJournal() (*journal.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	j, err := journal.Open(a.cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	a.journal = j
	return j, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
