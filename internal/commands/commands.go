// Package commands wires the evcal CLI.
package commands

import (
	"github.com/spf13/cobra"

	"evcal/internal/clock"
	"evcal/internal/config"
	appLog "evcal/internal/log"
	"evcal/internal/persist"
	"evcal/internal/store"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func New() *cobra.Command {
	ro := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "evcal",
		Short:         "Calendar event store with reminders, search and an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", config.DefaultPath(), "Path to config file.")
	cmd.PersistentFlags().StringVar(&ro.dataDir, "data-dir", "", "Directory holding the events document (overrides config).")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "One of debug, info, warn, error (overrides config).")

	AddCommands(cmd, ro)
	return cmd
}

func AddCommands(topLevel *cobra.Command, ro *rootOptions) {
	addServe(topLevel, ro)
	addAdd(topLevel, ro)
	addList(topLevel, ro)
	addShow(topLevel, ro)
	addUpdate(topLevel, ro)
	addMove(topLevel, ro)
	addDelete(topLevel, ro)
	addDue(topLevel, ro)
	addStats(topLevel, ro)
	addMonth(topLevel, ro)
	addExport(topLevel, ro)
	addImport(topLevel, ro)
	addNotifications(topLevel, ro)
	addVersion(topLevel)
}

// load reads the config file and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// open loads config and the persisted store.
func (o *rootOptions) open(opts ...store.Option) (*config.Config, *store.Store, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	dir, err := cfg.DataPath()
	if err != nil {
		return nil, nil, err
	}
	disk, err := persist.OpenDisk(dir)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]store.Option{store.WithClock(clock.System{})}, opts...)
	return cfg, store.Open(disk, opts...), nil
}
