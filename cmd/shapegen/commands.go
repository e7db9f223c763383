package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/c360studio/shapegen/config"
	"github.com/c360studio/shapegen/generate"
	"github.com/c360studio/shapegen/metrics"
	"github.com/c360studio/shapegen/shape"
	"github.com/spf13/cobra"
)

// app carries state shared by all commands once flags are parsed.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string
	join        string

	cfg      *config.Config
	logger   *slog.Logger
	recorder *metrics.Recorder
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "shapegen <mapping.yml> <out.shapes.ttl>",
		Short: "Generate baseline SHACL shapes from a YARRRML mapping",
		Long: `Shapegen reads a YARRRML mapping document and writes a baseline SHACL
shapes document in Turtle.

One NodeShape is generated per class asserted with [a, Class]. Every other
predicate of the mapping becomes a property constraint with:
- sh:minCount 1
- sh:nodeKind sh:IRI when the object is an IRI or looks like one
- sh:datatype when the object declares a datatype

The result is a structural baseline. Controlled vocabularies, optional
fields and conditional rules have to be added by hand.`,
		Args:              exactArgs(2),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runGenerate,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after each run")
	flags.StringVar(&a.join, "join", "", "Join policy for predicates: mapping or subject")

	cmd.AddCommand(a.watchCmd(), a.batchCmd(), a.configCmd(), versionCmd())

	return cmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	bootstrap := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.NewLoader(bootstrap).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.Textfile = a.metricsFile
	}
	if a.join != "" {
		cfg.Inference.Join = a.join
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err: fmt.Errorf("invalid configuration: %w", err)}
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.cfg = cfg
	a.recorder = metrics.New()
	return nil
}

func (a *app) generator() *generate.Generator {
	return generate.New(a.logger, a.recorder, shape.WithJoinPolicy(a.cfg.JoinPolicy()))
}

// flushMetrics writes the metrics textfile if configured. Failures are
// logged only; metrics never fail a run.
func (a *app) flushMetrics() {
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to write metrics", slog.String("error", err.Error()))
	}
}

func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := a.generator().Run(ctx, args[0], args[1])
	a.flushMetrics()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d NodeShapes to %s\n", report.Shapes, report.Output)
	return nil
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <mapping.yml> <out.shapes.ttl>",
		Short: "Regenerate shapes whenever the mapping changes",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			return a.generator().Watch(ctx, args[0], args[1], a.cfg.Watch.Debounce, func(r *generate.Report, err error) {
				a.flushMetrics()
				if err == nil {
					fmt.Fprintf(out, "Wrote %d NodeShapes to %s\n", r.Shapes, r.Output)
				}
			})
		},
	}
}

func (a *app) batchCmd() *cobra.Command {
	var suffix string

	cmd := &cobra.Command{
		Use:   "batch <glob> <outdir>",
		Short: "Generate shapes for every mapping matching a glob (** supported)",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if suffix == "" {
				suffix = a.cfg.Batch.Suffix
			}

			results, err := a.generator().Batch(ctx, args[0], args[1], suffix)
			a.flushMetrics()

			out := cmd.OutOrStdout()
			written := 0
			for _, r := range results {
				if r.Err == nil {
					written++
					fmt.Fprintf(out, "Wrote %d NodeShapes to %s\n", r.Report.Shapes, r.Output)
				}
			}
			if err != nil {
				return fmt.Errorf("%d of %d mappings failed: %w", len(results)-written, len(results), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&suffix, "suffix", "", "Output file suffix (default from config: .shapes.ttl)")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shapegen configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults if missing",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.NewLoader(a.logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
