package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/notecache/internal/config"
)

// Flag names. Each maps onto the koanf key of the same option.
const (
	flagHost      = "host"
	flagPort      = "port"
	flagCache     = "cache"
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

var flagKeys = map[string]string{
	flagHost:      config.KeyHost,
	flagPort:      config.KeyPort,
	flagCache:     config.KeyCache,
	flagLogLevel:  config.KeyLogLevel,
	flagLogFormat: config.KeyLogFormat,
}

// newRootCmd builds the notecache command. A fresh command per call keeps
// flag state out of package globals.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notecache",
		Short: "Serve text notes stored as files in a cache directory",
		Long: `notecache exposes create, read, update, delete and list operations
over HTTP for short text notes kept as <name>.txt files in one directory.

Host, port and cache directory are required. They can come from a YAML file
(--config or NOTECACHE_CONFIG), from NOTECACHE_* environment variables or
from flags, in increasing order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Context(), path, overrides(cmd))
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	// -h is taken by --host, so help keeps only its long form.
	f.Bool("help", false, "help for notecache")
	f.StringP(flagHost, "h", "", "server address, e.g. 127.0.0.1")
	f.StringP(flagPort, "p", "", "server port number")
	f.StringP(flagCache, "c", "", "path to the directory with cached files")
	f.String(flagConfig, "", "YAML config file (defaults to $"+config.EnvConfigFile+")")
	f.String(flagLogLevel, "", "log level: debug, info, warn, error")
	f.String(flagLogFormat, "", "log format: text or json")
	return cmd
}

// overrides collects only the flags the user actually set, so defaults
// never shadow file or environment values.
func overrides(cmd *cobra.Command) config.Overrides {
	out := config.Overrides{}
	for name, key := range flagKeys {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if v, err := cmd.Flags().GetString(name); err == nil {
			out[key] = v
		}
	}
	return out
}
