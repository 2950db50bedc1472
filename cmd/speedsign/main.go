// Package main is the speedsign command: detect speed limit signs in images,
// evaluate a labeled test set, or serve the detector over MCP.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/speed-sign-mcp/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	// Global flags.
	flagDebug     = "debug"
	flagConfig    = "config"
	flagExemplars = "exemplars"
	flagWorkers   = "workers"

	// Command flags.
	flagJSON       = "json"
	flagAnnotate   = "annotate"
	flagDebugMasks = "debug-masks"
	flagTable      = "table"
)

// runtimeEnv is what Before prepares for every command.
type runtimeEnv struct {
	cfg    *config.TuningConfig
	logger *zap.SugaredLogger
}

func main() {
	env := &runtimeEnv{logger: zap.NewNop().Sugar()}
	if err := newApp(env).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Before fills env for the chosen command.
func newApp(env *runtimeEnv) *cli.App {
	return &cli.App{
		Name:    "speedsign",
		Usage:   "detect speed limit signs in images",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load tuning configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagExemplars,
				Usage: "exemplar matrix `FILE` (.npy or text)",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Usage: "classify up to `N` regions concurrently",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.GetLogLevel(), c.Bool(flagDebug))
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = logger
			return nil
		},
		After: func(c *cli.Context) error {
			// Sync fails on a terminal stderr; there is nothing useful to do about it.
			_ = env.logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			detectCommand(env),
			batchCommand(env),
			serveCommand(env),
			exemplarsCommand(env),
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "speedsign %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

// loadConfig merges, in increasing priority: built-in defaults or the
// --config file, SPEEDSIGN_* environment variables, then global flags.
func loadConfig(c *cli.Context) (*config.TuningConfig, error) {
	cfg := config.DefaultTuningConfig()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.LoadTuningConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if c.IsSet(flagExemplars) {
		path := c.String(flagExemplars)
		cfg.ExemplarPath = &path
	}
	if c.IsSet(flagWorkers) {
		n := c.Int(flagWorkers)
		cfg.Workers = &n
	}
	if c.Bool(flagDebug) {
		level := "debug"
		cfg.LogLevel = &level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr; stdout carries results and the MCP protocol.
func newLogger(level string, debug bool) (*zap.SugaredLogger, error) {
	if debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
