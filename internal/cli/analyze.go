package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/provscan/internal/cache"
	"github.com/ppiankov/provscan/internal/extract"
	"github.com/ppiankov/provscan/internal/llm"
	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/pipeline"
	"github.com/ppiankov/provscan/internal/util"
)

var (
	noCache     bool
	explain     bool
	showSummary bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyze one media file and print its provenance report",
	Long: `Analyze extracts the C2PA manifest store of a file with c2patool, scores
the claims and trust chain, and prints the report as one JSON line on stdout.

Files without provenance data still produce a report (verdict Unknown).

Example:
  provscan analyze photo.jpg
  provscan analyze photo.jpg --summary
  provscan analyze photo.jpg --explain --summary`,
	Args: analyzeArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the report cache")
	analyzeCmd.Flags().BoolVar(&explain, "explain", false, "add an LLM explanation (requires llm.provider)")
	analyzeCmd.Flags().BoolVar(&showSummary, "summary", false, "print a human-readable summary to stderr")
	analyzeCmd.Flags().String("c2patool", "", "path to the c2patool binary")

	_ = viper.BindPFlag("extractor.binary", analyzeCmd.Flags().Lookup("c2patool"))
}

// analyzeArgs requires exactly one path
func analyzeArgs(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return errors.New("Specify a path")
	case len(args) > 1:
		return errors.New("Too many arguments")
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stopTelemetry := startTelemetry(ctx, cfg)
	defer stopTelemetry()

	p, err := newPipeline(cfg, !noCache, explain)
	if err != nil {
		return err
	}

	result, err := p.Analyze(ctx, path)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}

	if err := pipeline.RenderJSONLine(cmd.OutOrStdout(), result.Report); err != nil {
		return err
	}

	switch {
	case showSummary:
		pipeline.RenderSummary(os.Stderr, result)
	case result.Explanation != nil:
		fmt.Fprintln(os.Stderr, result.Explanation.Text)
	}

	return nil
}

// newPipeline wires the extractor, cache and summarizer described by cfg
func newPipeline(cfg *model.Config, useCache, withExplanation bool) (*pipeline.Pipeline, error) {
	extractor := extract.NewC2PATool(cfg.Extractor.Binary, cfg.Extractor.Timeout)

	var opts []pipeline.Option
	if useCache && cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			util.Log.WithError(err).Warn("cache disabled")
		} else {
			opts = append(opts, pipeline.WithCache(c, cfg.Cache.DiskTTL))
		}
	}

	if withExplanation {
		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg))
		if err != nil {
			return nil, fmt.Errorf("configure explanation: %w", err)
		}
		if !summarizer.IsEnabled() {
			return nil, errors.New("--explain needs llm.provider set (config file or PROVSCAN_LLM_PROVIDER)")
		}
		util.Log.WithField("provider", summarizer.ProviderName()).Debug("explanations enabled")
		opts = append(opts, pipeline.WithSummarizer(summarizer))
	}

	return pipeline.New(cfg, extractor, opts...), nil
}
