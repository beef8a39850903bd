package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cjeanneret/photobooth/internal/config"
	"github.com/cjeanneret/photobooth/internal/debug"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debugLevel int // -1 = use defaults.debug_level from the config
}

func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "photobooth",
		Short: "Photo booth: countdown, capture, compose, print",
		Long: `Photobooth drives a photo booth from a browser or a physical button.

A capture cycle counts down, grabs one or more frames from the camera,
composes them into a single picture (single, polaroid, two-up, four-up,
multi-N) and publishes it to the booth page, where it can be printed
or exported as PDF.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", filepath.Join("configs", "default.yaml"), "path to config file")
	cmd.PersistentFlags().IntVar(&g.debugLevel, "debug", -1, "debug level 0-4, overrides the config")

	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newCaptureCmd(g))
	cmd.AddCommand(newPrintersCmd(g))

	return cmd
}

// load reads the config file and initializes the debug logger.
// A missing file falls back to the built-in defaults.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Defaults.DebugLevel
	if g.debugLevel >= 0 {
		if g.debugLevel > 4 {
			return nil, fmt.Errorf("--debug must be between 0 and 4, got %d", g.debugLevel)
		}
		level = g.debugLevel
	}
	debug.Init(level)
	debug.Section("Initialization")
	debug.Value("Config path", g.configPath)
	debug.Value("Debug level", level)
	return cfg, nil
}

func loadConfig(path string) (*config.Config, error) {
	if err := config.ValidateConfigPath(path); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
