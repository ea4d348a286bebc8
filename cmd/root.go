// Package cmd implements the heapstore command line.
package cmd

import (
	"fmt"
	"os"

	"heapstore/pkg/config"
	"heapstore/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	rootCmd = &cobra.Command{
		Use:               "heapstore",
		Short:             "Heap file storage engine tools",
		Long:              "heapstore converts, inspects and scans heap files of fixed-width tuples.",
		SilenceUsage:      true,
		PersistentPreRunE: rootPreRun,
		PersistentPostRun: rootPostRun,
	}

	configFile = "heapstore.hcl"
	noConfig   = false

	dataDir     = config.DefaultDataDir
	pageSize    = config.Default().PageSize
	bufferPages = config.DefaultBufferPages
	lockTimeout = config.DefaultLockTimeout
	logLevel    = "info"
	logFile     = ""
	logFormat   = "text"

	usedFlags = map[string]struct{}{}

	// settings is the configuration the running command works with.
	settings *config.Config
)

func init() {
	fs := rootCmd.PersistentFlags()

	fs.StringVar(&configFile, "config-file", configFile, "`file` to load config from")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't load config file")

	fs.StringVar(&dataDir, "data-dir", dataDir, "`directory` holding table files and the schema file")
	fs.IntVar(&pageSize, "page-size", pageSize, "page size in `bytes`")
	fs.IntVar(&bufferPages, "buffer-pages", bufferPages, "buffer pool capacity in pages")
	fs.DurationVar(&lockTimeout, "lock-timeout", lockTimeout, "how long a lock request waits before aborting")
	fs.StringVar(&logLevel, "log-level", logLevel, "log level: debug, info, warn or error")
	fs.StringVar(&logFile, "log-file", logFile, "`file` to log to instead of standard error")
	fs.StringVar(&logFormat, "log-format", logFormat, "log format: text or json")
}

func Execute() error {
	return rootCmd.Execute()
}

func rootPreRun(cmd *cobra.Command, args []string) error {
	cmd.Flags().Visit(
		func(flg *pflag.Flag) {
			usedFlags[flg.Name] = struct{}{}
		})

	cfg, err := loadSettings()
	if err != nil {
		return fmt.Errorf("heapstore: %w", err)
	}

	_ = logging.Close()
	if err := logging.Init(cfg.LoggingConfig()); err != nil {
		return fmt.Errorf("heapstore: %w", err)
	}
	settings = cfg

	logging.GetLogger().WithField("pid", os.Getpid()).WithField("command", cmd.Name()).Info("heapstore starting")
	return nil
}

func rootPostRun(cmd *cobra.Command, args []string) {
	logging.GetLogger().WithField("pid", os.Getpid()).Info("heapstore done")
	_ = logging.Close()
}

// loadSettings reads the config file, when there is one, and overrides its
// values with the flags given on the command line. A missing config file is
// only an error when --config-file was given explicitly.
func loadSettings() (*config.Config, error) {
	cfg := config.Default()

	if configFile != "" && !noConfig {
		_, explicit := usedFlags["config-file"]
		if _, err := os.Stat(configFile); err == nil || explicit {
			loaded, err := config.Load(configFile)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	overrides := map[string]func(){
		"data-dir":     func() { cfg.DataDir = dataDir },
		"page-size":    func() { cfg.PageSize = pageSize },
		"buffer-pages": func() { cfg.BufferPages = bufferPages },
		"lock-timeout": func() { cfg.LockTimeout = lockTimeout },
		"log-level":    func() { cfg.LogLevel = logLevel },
		"log-file":     func() { cfg.LogFile = logFile },
		"log-format":   func() { cfg.LogFormat = logFormat },
	}
	for name, apply := range overrides {
		if _, ok := usedFlags[name]; ok {
			apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
