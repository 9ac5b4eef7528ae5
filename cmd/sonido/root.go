package main

import (
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/config"
	"github.com/RyanBlaney/sonido-timemap/logging"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string
	noColorFlag  bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "sonido",
		Short:         "Onset, beat and pitch timemaps for audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return ctx.setupLogging(cmd, config.Default().Logging)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.setupLogging(cmd, cfg.Logging)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&ctx.noColorFlag, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newTimemapCommand(ctx))
	rootCmd.AddCommand(newPlotCommand(ctx))
	rootCmd.AddCommand(newChopCommand(ctx))
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		if exists {
			logging.Debug("Loaded configuration", logging.Fields{"path": path})
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) setupLogging(cmd *cobra.Command, settings config.Logging) error {
	levelName := settings.Level
	if cmd.Flags().Changed("log-level") {
		levelName = c.logLevelFlag
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	var logger *logging.DefaultLogger
	if cmd.OutOrStdout() == os.Stdout {
		logger = logging.NewDefaultLogger()
	} else {
		logger = logging.NewWriterLogger(cmd.ErrOrStderr(), cmd.ErrOrStderr(), level)
	}
	logging.SetGlobalLogger(logger)
	logging.SetLevel(level)
	if c.noColorFlag || !settings.Color {
		logging.DisableColors()
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
