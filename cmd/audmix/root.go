// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/ik5/audmix/internal/config"
	"github.com/ik5/audmix/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "audmix",
		Short: "Mix audio tracks into one WAV file",
		Long: `audmix decodes WAV, MP3, Ogg Vorbis and AIFF files, scales each one by a
volume percentage and sums them into a single 16-bit stereo WAV file.

Mixing runs on the CPU by default; --backend gpu runs the same mix as a
compute kernel, on the native GPU or, with --gpu-device software, on an
in-process emulator.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.BoolVar(&a.verbose, "verbose", false, "debug logging")
	flags.String("backend", config.BackendCPU, "mixing backend (cpu, gpu)")
	flags.String("gpu-device", config.DeviceNative, "device for the gpu backend (native, software)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = a.v.BindPFlag("backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("gpu.device", flags.Lookup("gpu-device"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(newMixCmd(a), newVersionCmd())

	return root
}

// load reads and validates the configuration and builds the logger.
func (a *app) load() (*config.Config, *zap.Logger, error) {
	if a.verbose {
		a.v.Set("logging.level", "debug")
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	return cfg, logger, nil
}
