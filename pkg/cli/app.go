package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/revrank/pkg/config"
	"github.com/mchmarny/revrank/pkg/data"
	"github.com/mchmarny/revrank/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "revrank"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:    "db",
		Usage:   "Path to the Sqlite database file or a postgres:// URL",
		Sources: urfave.EnvVars("REVRANK_DB"),
	}

	configFileFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: fmt.Sprintf("Path to the config file (default: $HOME/.%s/%s)", appName, config.FileName),
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger(config.LogLevelDefault)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath string
	Format string
	Debug  bool
	Conf   *config.Config
	DB     *sqlx.DB
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:                 "Rank reviews by helpfulness votes",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			configFileFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			importCmd,
			rankCmd,
			compareCmd,
			scoreCmd,
			ratingCmd,
			stateCmd,
			resetCmd,
			serverCmd,
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			debug := cmd.Bool(debugFlag.Name)
			if debug {
				logging.SetDefaultCLILogger("debug")
			}

			conf, err := loadConfig(cmd.String(configFileFlag.Name))
			if err != nil {
				return ctx, err
			}
			if !debug {
				logging.SetDefaultCLILogger(conf.LogLevel)
			}

			f := cmd.String(formatFlag.Name)
			switch f {
			case formatJSON:
			case formatYAML, "yml":
				f = formatYAML
			default:
				return ctx, fmt.Errorf("unsupported output format: %s", f)
			}

			dbPath := cmd.String(dbFilePathFlag.Name)
			if dbPath == "" {
				dbPath = conf.DB
			}
			if dbPath == "" {
				dbPath = filepath.Join(getHomeDir(), data.DataFileName)
			}

			db, err := data.Open(dbPath)
			if err != nil {
				return ctx, fmt.Errorf("opening database: %w", err)
			}
			slog.Debug("database opened", "driver", db.DriverName())

			cmd.Metadata[appConfigKey] = &appConfig{
				DBPath: dbPath,
				Format: f,
				Debug:  debug,
				Conf:   conf,
				DB:     db,
			}
			return ctx, nil
		},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Read(path)
	}

	dir, _, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("no home dir for config, using defaults", "error", err)
		return config.Default(), nil
	}
	return config.ReadOrCreate(dir)
}

func getHomeDir() string {
	dir, _, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	return dir
}

func encode(cmd *urfave.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		w = os.Stdout
	}
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
