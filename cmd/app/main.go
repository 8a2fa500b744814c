package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hallgard/furrow/internal"
	"github.com/hallgard/furrow/internal/models"
	pkgconfig "github.com/hallgard/furrow/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	// An explicitly named config file must exist; the default location is
	// optional so one-shot conversions work without any file.
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mode := models.ImportMode(cmd.String("mode"))
	if !mode.Valid() {
		return fmt.Errorf("unknown import mode %q", mode)
	}
	return internal.RunConvert(ctx, cfg, mode, cmd.String("root"), cmd.String("out"))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "furrow",
		Usage:  "Convert Cerea guidance exports into shapefiles, with editable track lists and replayable edits",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "convert",
				Usage:  "One-shot conversion of an import root into a shapefile archive",
				Action: convert,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "root",
						Usage:    "Import root directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Import mode: cerea-txt or shapefile",
						Value: "cerea-txt",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output archive path",
						Value: "furrow-export.zip",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio for the configured import root",
				Action: mcp,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
