package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/hanrei/pkg/api"
	"github.com/coolbeans/hanrei/pkg/citation"
	"github.com/coolbeans/hanrei/pkg/config"
	"github.com/coolbeans/hanrei/pkg/judgment"
	"github.com/coolbeans/hanrei/pkg/logging"
	"github.com/coolbeans/hanrei/pkg/pipeline"
	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/source"
	"github.com/coolbeans/hanrei/pkg/store"
	"github.com/coolbeans/hanrei/pkg/types"
	"github.com/coolbeans/hanrei/pkg/watch"
)

var version = "0.1.0"

// app holds what every subcommand needs once flags and configuration have
// been resolved.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	rules  *rules.Rules
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "hanrei",
		Short: "Structure Japanese tax court judgments",
		Long: `Hanrei turns the extracted text of Japanese tax court judgments into
structured case records.

For every case it recovers:
  - Heading metadata (title, court, date, result)
  - Labeled sections and paragraphs
  - Statute citations, inherited from the original judgment on appeal
  - Disputed issues and topic keywords
  - Tax categories`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().String("config", "", "Config file (default hanrei.toml when present)")
	rootCmd.PersistentFlags().String("rules", "", "Rule file replacing the built-in rules")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(processCmd(a))
	rootCmd.AddCommand(extractCmd(a))
	rootCmd.AddCommand(sectionsCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(watchCmd(a))
	rootCmd.AddCommand(rulesCmd(a))

	return rootCmd
}

// setup resolves configuration with flags taking precedence, then builds
// the logger and loads the rules.
func (a *app) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	overrideString(cmd, "rules", &cfg.Rules)
	overrideString(cmd, "log-level", &cfg.Log.Level)
	overrideString(cmd, "log-format", &cfg.Log.Format)
	overrideString(cmd, "index", &cfg.Index)
	overrideString(cmd, "db", &cfg.Database)
	overrideString(cmd, "addr", &cfg.Server.Addr)
	if cmd.Flags().Changed("texts") {
		cfg.Source.Type = "local"
		cfg.Source.Directory, _ = cmd.Flags().GetString("texts")
	}
	if cmd.Flags().Changed("legacy") {
		cfg.Citations.Legacy, _ = cmd.Flags().GetBool("legacy")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	if cfg.Rules != "" {
		a.rules, err = rules.Load(cfg.Rules)
	} else {
		a.rules, err = rules.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	return nil
}

// overrideString copies a flag into dest when it was given on the command
// line. Commands without the flag leave dest alone.
func overrideString(cmd *cobra.Command, name string, dest *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dest = f.Value.String()
	}
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithLogger(a.logger)}
	if a.cfg.Citations.Legacy {
		opts = append(opts, pipeline.WithCitationLimits(citation.LegacyLimits))
	}
	return pipeline.New(a.rules, opts...)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func processCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Structure every case of an index",
		Long: `Read the case index, structure the text of every case and write the
index back.

Cases whose text is missing or unusable are reported and left as they were.

Example:
  hanrei process --index data/index.json --texts data/texts
  hanrei process --index data/index.json --texts data/texts --db hanrei.db --report json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output, _ := cmd.Flags().GetString("output")
			reportFormat, _ := cmd.Flags().GetString("report")
			fromDB, _ := cmd.Flags().GetBool("from-db")

			if reportFormat != "table" && reportFormat != "json" {
				return fmt.Errorf("unknown report format %q", reportFormat)
			}
			if output == "" {
				output = a.cfg.Index
			}

			var db *store.DB
			if a.cfg.Database != "" {
				var err error
				if db, err = store.Open(a.cfg.Database); err != nil {
					return err
				}
				defer db.Close()
			}

			var corpus *types.Corpus
			var err error
			if fromDB {
				if db == nil {
					return fmt.Errorf("--from-db needs --db")
				}
				corpus, err = db.LoadCorpus(ctx)
			} else {
				corpus, err = store.LoadIndex(a.cfg.Index)
			}
			if err != nil {
				return err
			}

			reader, err := source.New(ctx, a.cfg.Source)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			report, err := p.Process(ctx, corpus, reader)
			if err != nil {
				return fmt.Errorf("processing stopped after %d cases: %w", report.Total, err)
			}

			if err := store.SaveIndex(output, corpus); err != nil {
				return err
			}
			a.logger.Info("index written", zap.String("path", output), zap.Int("cases", corpus.Len()))

			if db != nil {
				if err := db.SaveCorpus(ctx, corpus); err != nil {
					return err
				}
				if err := db.SaveRun(ctx, report.RunID, report.StartedAt, []byte(pipeline.FormatReportJSON(report))); err != nil {
					return err
				}
			}

			if reportFormat == "json" {
				fmt.Fprintln(a.out, pipeline.FormatReportJSON(report))
			} else {
				fmt.Fprint(a.out, pipeline.FormatReport(report))
			}
			return nil
		},
	}

	cmd.Flags().String("index", "", "Case index (index.json)")
	cmd.Flags().String("texts", "", "Directory of <number>.txt judgment texts")
	cmd.Flags().String("db", "", "SQLite database to store the corpus and run report in")
	cmd.Flags().StringP("output", "o", "", "Where to write the index (default: --index)")
	cmd.Flags().String("report", "table", "Report format (table, json)")
	cmd.Flags().Bool("legacy", false, "Cap citations at 5 per law and 10 per case")
	cmd.Flags().Bool("from-db", false, "Read the corpus from --db instead of the index")

	return cmd
}

func extractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Structure a single judgment text",
		Long: `Structure one judgment text file and print the case record as JSON.

Example:
  hanrei extract --source texts/092001.txt
  hanrei extract --source judgment.txt --title 所得税更正処分取消請求事件`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			title, _ := cmd.Flags().GetString("title")
			withSections, _ := cmd.Flags().GetBool("sections")

			if sourcePath == "" {
				return fmt.Errorf("--source flag is required")
			}
			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}

			number, ok := source.NumberFromPath(sourcePath)
			if !ok {
				number = strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
			}
			c := &types.Case{Number: number, Title: title}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			corpus := types.NewCorpus([]*types.Case{c})
			report, err := p.Process(cmd.Context(), corpus, source.NewMemory(map[string]string{number: string(data)}))
			if err != nil {
				return err
			}
			if len(report.Entries) > 0 {
				return fmt.Errorf("%s: %s", sourcePath, report.Entries[0].Error)
			}

			if !withSections {
				c.Sections = nil
			}
			return a.writeJSON(c)
		},
	}

	cmd.Flags().StringP("source", "s", "", "Judgment text file")
	cmd.Flags().String("title", "", "Case title, when the text does not carry one")
	cmd.Flags().Bool("sections", false, "Include section spans")
	cmd.Flags().Bool("legacy", false, "Cap citations at 5 per law and 10 per case")

	return cmd
}

func sectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Print the sections and paragraphs of a judgment text",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, _ := cmd.Flags().GetString("source")
			if sourcePath == "" {
				return fmt.Errorf("--source flag is required")
			}
			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}
			return a.writeJSON(judgment.Structure(judgment.Clean(string(data))))
		},
	}

	cmd.Flags().StringP("source", "s", "", "Judgment text file")

	return cmd
}

func showCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Print one case record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]

			if a.cfg.Database != "" {
				db, err := store.Open(a.cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				c, err := db.Get(cmd.Context(), number)
				if err != nil {
					return err
				}
				return a.writeJSON(c)
			}

			corpus, err := store.LoadIndex(a.cfg.Index)
			if err != nil {
				return err
			}
			c, ok := corpus.Get(number)
			if !ok {
				return fmt.Errorf("case %s: %w", number, types.ErrNotFound)
			}
			return a.writeJSON(c)
		},
	}

	cmd.Flags().String("index", "", "Case index (index.json)")
	cmd.Flags().String("db", "", "Read from this SQLite database instead of the index")

	return cmd
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the case index over HTTP",
		Long: `Serve a read-only JSON API over the case index.

Routes:
  GET /health
  GET /api/v1/cases?tax_type=&result=&law=&court=&limit=&offset=
  GET /api/v1/cases/{number}
  GET /api/v1/cases/{number}/sections   (with --texts or a configured source)
  GET /api/v1/stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			corpus, err := store.LoadIndex(a.cfg.Index)
			if err != nil {
				return err
			}

			opts := []api.Option{api.WithLogger(a.logger)}
			if a.cfg.Source.Directory != "" || a.cfg.Source.Bucket != "" {
				reader, err := source.New(ctx, a.cfg.Source)
				if err != nil {
					return err
				}
				opts = append(opts, api.WithReader(reader))
			}

			return api.NewServer(corpus, a.rules, opts...).Run(ctx, a.cfg.Server.Addr)
		},
	}

	cmd.Flags().String("index", "", "Case index (index.json)")
	cmd.Flags().String("texts", "", "Directory of judgment texts for the sections route")
	cmd.Flags().String("addr", "", "Listen address (default :8080)")

	return cmd
}

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprocess cases whenever their text changes",
		Long: `Watch the text directory and reprocess the index whenever a
<number>.txt file is created or rewritten. Texts for numbers missing from
the index add new cases. With --rules, edits to the rule file apply from
the next batch on.

Example:
  hanrei watch --index data/index.json --texts data/texts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			debounce, _ := cmd.Flags().GetDuration("debounce")

			if a.cfg.Source.Type == "s3" {
				return fmt.Errorf("watch needs a local text directory")
			}
			dir := a.cfg.Source.Directory
			reader := source.NewLocal(dir)
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			// An edited rule file swaps the pipeline used by the next batch.
			var mu sync.Mutex
			if a.cfg.Rules != "" {
				rw, err := rules.NewWatcher(a.cfg.Rules, a.logger)
				if err != nil {
					return err
				}
				rw.SetOnChange(func(r *rules.Rules) {
					mu.Lock()
					defer mu.Unlock()
					a.rules = r
					next, err := a.pipeline()
					if err != nil {
						a.logger.Warn("keeping previous pipeline", zap.Error(err))
						return
					}
					p = next
				})
				if err := rw.Start(); err != nil {
					return err
				}
				defer rw.Stop()
			}

			w := watch.New(dir, watch.WithDebounce(debounce), watch.WithLogger(a.logger))
			w.OnChange(func(ctx context.Context, numbers []string) error {
				mu.Lock()
				defer mu.Unlock()
				return a.reprocess(ctx, p, reader, numbers)
			})
			if err := w.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("watching texts", zap.String("directory", dir), zap.String("index", a.cfg.Index))

			<-ctx.Done()
			return w.Stop()
		},
	}

	cmd.Flags().String("index", "", "Case index (index.json)")
	cmd.Flags().String("texts", "", "Directory of <number>.txt judgment texts")
	cmd.Flags().String("db", "", "SQLite database to mirror the corpus into")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a batch is processed")
	cmd.Flags().Bool("legacy", false, "Cap citations at 5 per law and 10 per case")

	return cmd
}

// reprocess resets the changed cases and runs the pipeline over the whole
// index, since a changed origin affects the appeals that cite it.
func (a *app) reprocess(ctx context.Context, p *pipeline.Pipeline, reader source.Reader, numbers []string) error {
	corpus, err := store.LoadIndex(a.cfg.Index)
	if errors.Is(err, os.ErrNotExist) {
		corpus = types.NewCorpus(nil)
	} else if err != nil {
		return err
	}

	for _, number := range numbers {
		if c, ok := corpus.Get(number); ok {
			pipeline.Reset(c)
			continue
		}
		corpus.Put(&types.Case{Number: number})
	}

	report, err := p.Process(ctx, corpus, reader)
	if err != nil {
		return err
	}
	if err := store.SaveIndex(a.cfg.Index, corpus); err != nil {
		return err
	}

	if a.cfg.Database != "" {
		db, err := store.Open(a.cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveCorpus(ctx, corpus); err != nil {
			return err
		}
		if err := db.SaveRun(ctx, report.RunID, report.StartedAt, []byte(pipeline.FormatReportJSON(report))); err != nil {
			return err
		}
	}

	a.logger.Info("reprocessed",
		zap.Strings("changed", numbers),
		zap.Int("extracted", report.Extracted),
		zap.Int("skipped", report.Skipped))
	return nil
}

func rulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the extraction rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective rules as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.rules.Marshal()
			if err != nil {
				return fmt.Errorf("failed to render rules: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rules.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: ok (version %s, %d laws, %d abbreviations, %d topics)\n",
				args[0], r.Version, len(r.Laws), len(r.Abbreviations), len(r.Topics))
			return nil
		},
	})

	return cmd
}
