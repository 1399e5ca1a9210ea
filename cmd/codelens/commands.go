package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/tenntenn/codelens/backend/analysis"
	"github.com/tenntenn/codelens/backend/api"
	"github.com/tenntenn/codelens/backend/config"
	"github.com/tenntenn/codelens/backend/logging"
	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	file       string
	lang       langValue
	format     formatValue

	cfg    *config.Config
	logger hclog.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, format: formatText}

	root := &cobra.Command{
		Use:           "codelens [command]",
		Short:         "Find syntax and logic issues, estimate complexity and simplify code snippets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New("codelens", cfg.LogLevel, a.stderr)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to an .hcl or .yaml config file")

	root.AddCommand(
		a.reportCmd("syntax", "Report syntax errors", (*analysis.Analyzer).AnalyzeSyntax),
		a.reportCmd("logic", "Report logic errors", (*analysis.Analyzer).AnalyzeLogic),
		a.reportCmd("time", "Estimate the time complexity", (*analysis.Analyzer).ClassifyTime),
		a.reportCmd("space", "Estimate the space complexity", (*analysis.Analyzer).ClassifySpace),
		a.reportCmd("optimize", "Print the simplified source", (*analysis.Analyzer).Optimize),
		a.analyzeCmd(),
		a.batchCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) analyzer(goVersion string) *analysis.Analyzer {
	if goVersion == "" {
		goVersion = a.cfg.Analysis.GoVersion
	}
	return analysis.New(
		analysis.WithLogger(a.logger.Named("analysis")),
		analysis.WithGoVersion(goVersion),
		analysis.WithDisabled(a.cfg.Analysis.DisabledDetectors...),
	)
}

// sourceFlags adds --file and --lang to cmd.
func (a *app) sourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.file, "file", "f", "", "source file (default: read stdin)")
	cmd.Flags().VarP(&a.lang, "lang", "l", "source language: "+languageList())
	_ = cmd.MarkFlagRequired("lang")
}

func (a *app) readSource() (string, error) {
	if a.file == "" {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(a.file)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(b), nil
}

// sourceURI names the source in SARIF reports.
func (a *app) sourceURI() string {
	if a.file != "" {
		return a.file
	}
	return "stdin" + a.lang.lang.Extension()
}

func (a *app) reportCmd(name, short string, entry func(*analysis.Analyzer, string, string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.readSource()
			if err != nil {
				return err
			}
			out := entry(a.analyzer(""), src, string(a.lang.lang))
			if len(out) == 0 || out[len(out)-1] != '\n' {
				out += "\n"
			}
			_, err = io.WriteString(a.stdout, out)
			return err
		},
	}
	a.sourceFlags(cmd)
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every analysis on a snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.readSource()
			if err != nil {
				return err
			}
			an := a.analyzer("")
			res, err := an.Analyze(cmd.Context(), src, string(a.lang.lang))
			if err != nil {
				return err
			}
			return a.write(an, []namedResult{{Name: a.sourceURI(), Result: res}})
		},
	}
	a.sourceFlags(cmd)
	cmd.Flags().Var(&a.format, "format", "output format: text, json or sarif")
	return cmd
}

type namedResult struct {
	Name   string                 `json:"name"`
	Result *model.AnalyzeResponse `json:"result"`
}

func (a *app) write(an *analysis.Analyzer, results []namedResult) error {
	switch a.format {
	case formatJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0].Result)
		}
		return enc.Encode(results)
	case formatSARIF:
		artifacts := make([]analysis.Artifact, len(results))
		for i, r := range results {
			artifacts[i] = analysis.Artifact{URI: r.Name, Findings: r.Result.Findings}
		}
		report, err := analysis.ToSARIF(an.Detectors(), artifacts...)
		if err != nil {
			return err
		}
		return report.PrettyWrite(a.stdout)
	}
	for i, r := range results {
		name := ""
		if len(results) > 1 {
			name = r.Name
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
		}
		if err := analysis.WriteText(a.stdout, name, r.Result); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [archive.txtar]",
		Short: "Analyze every snippet of a txtar archive",
		Long: `Analyze every snippet of a txtar archive. The language of each snippet is
taken from its file extension. A go.mod entry sets the Go language version
used when rewriting Go snippets.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(a.stdin)
			}
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}

			ar, err := parser.ParseTxtar(data)
			if err != nil {
				return err
			}
			for _, name := range ar.Skipped {
				a.logger.Warn("skipping file of unknown language", "file", name)
			}

			an := a.analyzer(ar.GoVersion)
			results := make([]namedResult, 0, len(ar.Files))
			for _, f := range ar.Files {
				res, err := an.Analyze(cmd.Context(), f.Content, string(f.Language))
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				results = append(results, namedResult{Name: f.Name, Result: res})
			}
			return a.write(an, results)
		},
	}
	cmd.Flags().Var(&a.format, "format", "output format: text, json or sarif")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect RPC and JSON server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			h := api.NewAnalyzerServiceHandler(a.analyzer(""), a.cfg.Analysis.MaxSourceBytes)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := api.Serve(ctx, addr, api.NewHTTPHandler(h, a.logger), a.logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
