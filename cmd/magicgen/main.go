package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/magicgen/internal/app"
	"github.com/mmrzaf/magicgen/internal/config"
	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/exec"
	"github.com/mmrzaf/magicgen/internal/infra/repos/runs"
	"github.com/mmrzaf/magicgen/internal/infra/repos/schemas"
	"github.com/mmrzaf/magicgen/internal/logging"
	"github.com/mmrzaf/magicgen/internal/schema"
	"github.com/mmrzaf/magicgen/internal/validation"
)

var (
	logLevel   string
	runsDBPath string
)

type generateOptions struct {
	output    string
	count     int
	filename  string
	affix     string
	schemaArg string
	lines     int
	clearPath bool
	processes int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := rootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:           "magicgen",
		Short:         "Generate JSON-lines test data from a schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(&opts)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log", cfg.LogLevel, "Log level (DEBUG|INFO|WARNING|ERROR)")
	cmd.PersistentFlags().StringVar(&runsDBPath, "runs-db", cfg.RunsDB, "Run history database (SQLite path or postgres:// DSN)")

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", cfg.Output, "Output directory")
	f.IntVarP(&opts.count, "count", "c", cfg.Count, "Number of files to write; 0 prints to stdout")
	f.StringVarP(&opts.filename, "filename", "f", cfg.Filename, "Base filename")
	f.StringVarP(&opts.affix, "affix", "a", cfg.Affix, "Filename affix strategy (count|random|uuid)")
	f.StringVarP(&opts.schemaArg, "schema", "s", "", "Inline JSON schema or path to a schema file")
	f.IntVarP(&opts.lines, "lines", "l", cfg.Lines, "Lines per file")
	f.BoolVar(&opts.clearPath, "clear-path", false, "Delete files starting with the base filename before writing")
	f.IntVarP(&opts.processes, "processes", "p", cfg.Processes, "Number of parallel workers")
	_ = cmd.MarkFlagRequired("schema")

	cmd.AddCommand(validateCmd())
	cmd.AddCommand(runsCmd())
	return cmd
}

func runGenerate(opts *generateOptions) error {
	logger := logging.NewLogger(logLevel)
	defer logger.Sync()

	if !logging.IsValidLevel(logLevel) {
		logger.Warn("Unknown log level %q, using INFO", logLevel)
	}

	doc, err := schemas.Load(opts.schemaArg)
	if err != nil {
		return err
	}

	workers, capped := validation.CapWorkers(opts.processes, runtime.NumCPU())
	if capped {
		logger.Warnw("worker count capped", map[string]any{"requested": opts.processes, "workers": workers})
	}

	runCfg := &domain.RunConfig{
		OutputDir:    opts.output,
		BaseFilename: opts.filename,
		Count:        opts.count,
		LinesPerFile: opts.lines,
		Affix:        domain.AffixStrategy(opts.affix),
		Workers:      workers,
		ClearPath:    opts.clearPath,
	}

	var repo runs.Repository
	if runsDBPath != "" {
		repo, err = runs.Open(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open runs db %s: %w", runs.RedactDSN(runsDBPath), err)
		}
		defer repo.Close()
		logger.Debugw("run history enabled", map[string]any{"dsn": runs.RedactDSN(runsDBPath)})
	}

	svc := app.NewRunService(repo, exec.NewExecutor(logger), logger)
	res, err := svc.Run(runCfg, doc)
	if res != nil && res.Stats != nil && runCfg.Count > 0 {
		logger.Infow("run summary", map[string]any{
			"run_id":        res.Run.ID,
			"files_written": res.Stats.FilesWritten,
			"files_failed":  res.Stats.FilesFailed,
			"files_cleared": res.Stats.FilesCleared,
			"lines_written": res.Stats.LinesWritten,
			"duration_s":    res.Stats.DurationSeconds,
		})
	}
	return err
}

func validateCmd() *cobra.Command {
	var schemaArg string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile a schema and print its fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schemas.Load(schemaArg)
			if err != nil {
				return err
			}

			gen, err := schema.Compile(doc)
			if err != nil {
				var ce *schema.CompileError
				if errors.As(err, &ce) {
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "FIELD\tREASON\tSPEC")
					for _, se := range ce.Errors {
						fmt.Fprintf(w, "%s\t%s\t%s\n", se.Field, se.Reason, se.Spec)
					}
					w.Flush()
				}
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tTYPE\tKIND\tSPEC")
			for _, f := range gen.Fields() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Spec.Name, f.Spec.Type, f.Generator.Kind(), f.Spec.RawSpec)
			}
			w.Flush()
			fmt.Printf("Schema is valid: %d fields\n", len(doc))
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaArg, "schema", "s", "", "Inline JSON schema or path to a schema file")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run history",
	}

	var (
		limit  int
		status string
		since  string
		format string
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sinceT time.Time
			if since != "" {
				t, err := runs.ParseSince(since, time.Now())
				if err != nil {
					return err
				}
				sinceT = t
			}

			runRepo, err := openRunsRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			list, err := runRepo.List(limit, status, sinceT)
			if err != nil {
				return err
			}

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tFILES\tLINES\tOUTPUT\tSTARTED")
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					shortID(r.ID), r.Status, r.Count, r.LinesPerFile,
					outputLabel(r), r.StartedAt.Local().Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Limit results")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (running|success|failed)")
	listCmd.Flags().StringVar(&since, "since", "", "Only runs started after this time (RFC3339 or a lookback, e.g. -24h, -7d)")
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunsRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			run, err := runRepo.Get(args[0])
			if err != nil {
				return err
			}

			view := struct {
				domain.Run `yaml:",inline"`
				Stats      *domain.RunStats `yaml:"stats,omitempty"`
			}{Run: *run}
			if len(run.Stats) > 0 {
				var stats domain.RunStats
				if err := json.Unmarshal(run.Stats, &stats); err == nil {
					view.Stats = &stats
				}
			}

			data, _ := yaml.Marshal(view)
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func openRunsRepo() (runs.Repository, error) {
	if runsDBPath == "" {
		return nil, domain.NewConfigError("runs_db", "run history is not configured; set --runs-db or runs_db in config.ini")
	}
	repo, err := runs.Open(runsDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open runs db %s: %w", runs.RedactDSN(runsDBPath), err)
	}
	return repo, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func outputLabel(r *domain.Run) string {
	if r.Count == 0 {
		return "stdout"
	}
	return r.OutputDir + "/" + r.BaseFilename
}
