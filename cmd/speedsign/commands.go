package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/ironsheep/speed-sign-mcp/internal/classifier"
	"github.com/ironsheep/speed-sign-mcp/internal/detection"
	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
	"github.com/ironsheep/speed-sign-mcp/internal/report"
	"github.com/ironsheep/speed-sign-mcp/internal/server"
	"github.com/ironsheep/speed-sign-mcp/internal/speedsign"
)

// newDetector builds a detector from the loaded configuration.
func newDetector(env *runtimeEnv, opts ...detection.Option) (*speedsign.Detector, error) {
	proposer, err := detection.NewProposer(env.cfg.ProposerConfig(), opts...)
	if err != nil {
		return nil, err
	}

	var copts []classifier.Option
	if env.cfg.GetAllowUnknownLabels() {
		copts = append(copts, classifier.WithAllowUnknownLabels())
	}
	c, err := classifier.NewClassifierFromFile(env.cfg.GetExemplarPath(), copts...)
	if err != nil {
		return nil, err
	}
	env.logger.Debugw("loaded exemplars", "path", env.cfg.GetExemplarPath(), "rows", c.Exemplars().Len())

	return speedsign.NewDetector(proposer, c,
		speedsign.WithWorkers(env.cfg.GetWorkers()),
		speedsign.WithLogger(env.logger),
	), nil
}

func detectCommand(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "detect speed limit signs in one or more images",
		ArgsUsage: "IMAGE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagJSON,
				Usage: "print results as JSON",
			},
			&cli.StringFlag{
				Name:  flagAnnotate,
				Usage: "write the image with detected signs drawn on it to `FILE` (single image only)",
			},
			&cli.StringFlag{
				Name:  flagDebugMasks,
				Usage: "write the intermediate segmentation masks into `DIR`",
			},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one image is required")
			}
			if c.String(flagAnnotate) != "" && len(paths) != 1 {
				return errors.New("--annotate needs exactly one image")
			}

			var opts []detection.Option
			var current string
			if dir := c.String(flagDebugMasks); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				opts = append(opts, detection.WithObserver(func(stage string, m *detection.Mask) {
					name := fmt.Sprintf("%s-%s.png", strings.TrimSuffix(filepath.Base(current), filepath.Ext(current)), stage)
					if err := writeMask(filepath.Join(dir, name), m); err != nil {
						env.logger.Warnw("failed to write mask", "stage", stage, "error", err)
						return
					}
					env.logger.Debugw("wrote mask", "stage", stage, "pixels", m.Count(), "file", name)
				}))
			}

			detector, err := newDetector(env, opts...)
			if err != nil {
				return err
			}

			for _, path := range paths {
				current = path
				img, err := imaging.LoadFile(path)
				if err != nil {
					return err
				}
				results, err := detector.Detect(c.Context, img)
				if err != nil {
					return errors.Wrapf(err, "detect %s", path)
				}

				if c.Bool(flagJSON) {
					err = report.WriteJSON(c.App.Writer, path, results)
				} else {
					err = report.WriteTerminal(c.App.Writer, results)
				}
				if err != nil {
					return err
				}

				if out := c.String(flagAnnotate); out != "" {
					if err := writeAnnotated(out, img, results); err != nil {
						return err
					}
					env.logger.Infow("wrote annotated image", "path", out)
				}
			}
			return nil
		},
	}
}

func writeMask(path string, m *detection.Mask) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, m.Gray()); err != nil {
		return multierr.Append(err, f.Close())
	}
	return f.Close()
}

func writeAnnotated(path string, img *imaging.RGB, results []speedsign.Result) error {
	anns := make([]imaging.Annotation, len(results))
	for i, r := range results {
		anns[i] = imaging.Annotation{Rect: r.BBox.Rect(), Label: r.Speed.String()}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, imaging.Annotate(img, anns, 0)); err != nil {
		return multierr.Append(err, f.Close())
	}
	return f.Close()
}

func batchCommand(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "evaluate a directory of labeled test images named <speed>-<id>x<count>.png",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagTable,
				Usage: "print a summary table after the log",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one directory is required")
			}
			detector, err := newDetector(env)
			if err != nil {
				return err
			}

			detect := func(ctx context.Context, path string) ([]speedsign.Result, error) {
				img, err := imaging.LoadFile(path)
				if err != nil {
					return nil, err
				}
				return detector.Detect(ctx, img)
			}

			summary, err := report.Evaluate(c.Context, c.Args().First(), detect)
			if summary == nil {
				return err
			}
			if err != nil {
				for _, e := range multierr.Errors(err) {
					env.logger.Warnw("image failed", "error", e)
				}
			}

			if err := summary.WriteLog(c.App.Writer); err != nil {
				return err
			}
			if c.Bool(flagTable) {
				fmt.Fprintln(c.App.Writer, summary.Table())
			}
			return nil
		},
	}
}

func serveCommand(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the MCP server on stdin/stdout",
		Action: func(c *cli.Context) error {
			detector, err := newDetector(env)
			if err != nil {
				// The image tools still work without exemplars.
				env.logger.Warnw("speed sign tools disabled", "error", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			env.logger.Infow("starting MCP server", "version", Version, "commit", GitCommit)
			srv := server.New(detector, server.WithLogger(env.logger), server.WithVersion(Version))
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func exemplarsCommand(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "exemplars",
		Usage: "work with exemplar matrices",
		Subcommands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "print the label distribution of an exemplar file",
				ArgsUsage: "[FILE]",
				Action: func(c *cli.Context) error {
					path := env.cfg.GetExemplarPath()
					if c.NArg() > 0 {
						path = c.Args().First()
					}
					set, err := classifier.LoadExemplars(path)
					if err != nil {
						return err
					}

					t := table.NewWriter()
					t.SetTitle(path)
					t.AppendHeader(table.Row{"Label", "Speed", "Rows"})
					for _, lc := range set.LabelCounts() {
						t.AppendRow(table.Row{int(lc.Label), lc.Label.String(), lc.Count})
					}
					t.AppendFooter(table.Row{"", "Total", set.Len()})
					fmt.Fprintln(c.App.Writer, t.Render())
					return nil
				},
			},
			{
				Name:      "convert",
				Usage:     "convert an exemplar file between .npy and text; the format follows the extension",
				ArgsUsage: "IN OUT",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return errors.New("convert needs an input and an output file")
					}
					in, out := c.Args().Get(0), c.Args().Get(1)
					set, err := classifier.LoadExemplars(in)
					if err != nil {
						return err
					}
					if err := classifier.SaveExemplars(out, set); err != nil {
						return err
					}
					env.logger.Infow("converted exemplars", "from", in, "to", out, "rows", set.Len())
					return nil
				},
			},
		},
	}
}
