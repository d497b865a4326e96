package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/photonicat/simply_analog/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Device config file." type:"path" default:"config.json" env:"SIMPLY_ANALOG_CONFIG"`
	Store   string `help:"Face config store, overrides store_path from the device config." env:"SIMPLY_ANALOG_STORE"`
	LogDir  string `help:"Also write a rotating log file in this directory." type:"path" env:"SIMPLY_ANALOG_LOG_DIR"`
	Debug   bool   `help:"Enable debug logging." env:"SIMPLY_ANALOG_DEBUG"`

	Run    RunCmd    `cmd:"" help:"Run the watchface on the configured panel." default:"1"`
	Render RenderCmd `cmd:"" help:"Render a single frame to a PNG file."`
	Face   struct {
		Show  ConfigShowCmd  `cmd:"" help:"Print the stored face configuration."`
		Set   ConfigSetCmd   `cmd:"" help:"Apply KEY=VALUE companion message fields."`
		Reset ConfigResetCmd `cmd:"" help:"Restore the default face configuration."`
	} `cmd:"" name:"config" help:"Manage the face configuration."`
}

func main() {
	// a missing .env is normal
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("simply-analog"),
		kong.Description("Configurable analog clock face for small Linux displays"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, LogDir: CLI.LogDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(CLI.Config)
	if err != nil {
		logger.Fatal("failed to load device config", "path", CLI.Config, "err", err)
	}
	if CLI.Store != "" {
		cfg.StorePath = CLI.Store
	}

	appCtx := &Context{Config: cfg, ConfigPath: CLI.Config}
	if err := ctx.Run(appCtx); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}
