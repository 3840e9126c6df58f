/*
Package main is the entry point for the domhits command-line application.

domhits reads an access log in which every line is "<domain> <count>",
reduces each domain to its registrable form (www.example.co.uk becomes
example.co.uk), sums the counts per reduced domain and prints the domains
whose total reaches a minimum number of hits, busiest first.

Subcommands:
  - report: aggregate a log file, stdin ("-") or the built-in sample.
  - normalize: print the reduced form of each domain argument.
  - version: print the build version.

Settings come from flags, DOMHITS_* environment variables and an optional
config file (--config), in that order of precedence. Logs go to stderr;
the report goes to stdout unless --output is set.
*/
package main


/*
domhits — aggregate domain hit counts from access logs
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/x-stp/domhits/internal/config"
	"github.com/x-stp/domhits/internal/core"
	"github.com/x-stp/domhits/internal/hitlib"
	"github.com/x-stp/domhits/internal/logging"
	"github.com/x-stp/domhits/internal/logsource"
	"github.com/x-stp/domhits/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds per-invocation state shared by the subcommands.
type cli struct {
	configFile string
	showStats  bool
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	rootCmd := &cobra.Command{
		Use:           "domhits",
		Short:         "domhits - aggregate domain hit counts from access logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.configFile, "config", "", "Config file (yaml, json or toml)")
	pf.Bool("debug", d.Debug, "Enable debug logging")
	pf.Int64P("min-hits", "m", d.MinHits, "Minimum total hits for a domain to be reported (inclusive)")
	pf.StringP("format", "f", d.Format, "Output format: text, table or json")
	pf.String("input-format", d.InputFormat, "Log line format: plain or ndjson")
	pf.String("normalizer", d.Normalizer, "Domain normalizer: labels or psl")
	pf.StringP("output", "o", d.Output, "Write the report to this file instead of stdout (.gz compresses)")
	pf.String("metrics-file", d.MetricsFile, "Write Prometheus metrics to this file after the run")

	reportCmd := &cobra.Command{
		Use:   "report [FILE|-]",
		Short: "Aggregate a log and print the domains with enough hits",
		Long: `Aggregates "<domain> <count>" lines per registrable domain and prints
"<domain>,(<hits>)" lines for every domain with at least --min-hits hits,
ordered by hits descending then domain ascending.

Without FILE the built-in sample log is used; "-" reads standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return app.runReport(cmd, path)
		},
	}
	reportCmd.Flags().BoolVarP(&app.showStats, "stats", "s", false, "Print run statistics to stderr")

	normalizeCmd := &cobra.Command{
		Use:   "normalize DOMAIN...",
		Short: "Print the registrable form of each domain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runNormalize(cmd, args)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the domhits version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "domhits %s\n", version)
		},
	}

	rootCmd.AddCommand(reportCmd, normalizeCmd, versionCmd)
	return rootCmd
}

// loadConfig merges defaults, config file, environment and flags.
func (app *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v, app.configFile)
}

func (app *cli) runReport(cmd *cobra.Command, path string) (err error) {
	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Options{Debug: cfg.Debug, Writer: cmd.ErrOrStderr()})
	defer func() { _ = logger.Sync() }()

	if cfg.MetricsFile != "" {
		metrics.EnableMetrics()
		defer func() {
			if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Error("Failed to write metrics", zap.Error(werr))
				err = errors.Join(err, werr)
			}
		}()
	}

	src, err := logsource.Load(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	counter, err := core.NewDomainCounter(&core.DomainCounterConfig{
		MinHits:     cfg.MinHits,
		InputFormat: cfg.InputFormat,
		Normalizer:  cfg.Normalizer,
	}, logger)
	if err != nil {
		return err
	}
	report, err := counter.Count(src)
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), cfg, report, logger); err != nil {
		return err
	}
	if app.showStats {
		return printStats(cmd.ErrOrStderr(), counter.Stats())
	}
	return nil
}

// writeReport renders report to stdout, or atomically to cfg.Output.
func writeReport(stdout io.Writer, cfg *config.Config, report *hitlib.Report, logger *zap.Logger) error {
	if cfg.Output == "" {
		return report.Render(stdout, cfg.Format)
	}
	rf, err := core.CreateReportFile(cfg.Output)
	if err != nil {
		return err
	}
	if err := report.Render(rf, cfg.Format); err != nil {
		rf.Abort()
		return err
	}
	if err := rf.Commit(); err != nil {
		return err
	}
	logger.Info("Report written", zap.String("path", rf.Path()), zap.Int("lines", len(report.Domains)))
	return nil
}

func printStats(w io.Writer, s core.DomainCounterStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Stat", "Value")
	rows := [][]string{
		{"Source", s.Source},
		{"Input bytes", strconv.FormatInt(s.InputBytes, 10)},
		{"Entries", strconv.FormatInt(s.Entries, 10)},
		{"Total hits", strconv.FormatInt(s.TotalHits, 10)},
		{"Domains", strconv.Itoa(s.Domains)},
		{"Reported", strconv.Itoa(s.ReportLines)},
		{"Digest", s.Digest},
		{"Duration", s.Duration.String()},
	}
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build stats table: %w", err)
	}
	return table.Render()
}

func (app *cli) runNormalize(cmd *cobra.Command, domains []string) error {
	cfg, err := app.loadConfig(cmd)
	if err != nil {
		return err
	}
	normalize, err := hitlib.NormalizerByName(cfg.Normalizer)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, d := range domains {
		n, err := normalize(d)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCode(err))
	}
}
