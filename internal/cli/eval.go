package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/provscan/internal/harness"
	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/storage"
	"github.com/ppiankov/provscan/internal/util"
)

const evalUsage = `Usage: provscan eval [expect] [url] [path] [output]

expect: analysis result to expect. values:
	(1,genuine,real)	genuine image
	(2,generated,fake)	generated image

url: image upload endpoint, ex. http://localhost:8080/upload

path: path containing images for analysis

output: path to write results to. optional
`

var historyLimit int

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <expect> <url> <dir> [output]",
	Short: "Upload a directory of images and score the endpoint's verdicts",
	Long: `Eval uploads every file in a directory to an analysis endpoint, compares
each verdict with the expected label and reports hits, misses, fails and
accuracy. Only .png, .jpg and .jpeg files are uploaded; other files count as fails.

Example:
  provscan eval genuine http://localhost:8080/upload ./photos
  provscan eval fake http://localhost:8080/upload ./generated report.json --concurrency 4
  provscan eval real http://localhost:8080/upload ./photos --history ~/.provscan/history.db`,
	Args: cobra.ArbitraryArgs,
	RunE: runEval,
}

// evalHistoryCmd lists stored runs
var evalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored evaluation runs",
	Args:  cobra.NoArgs,
	RunE:  runEvalHistory,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.AddCommand(evalHistoryCmd)

	evalCmd.PersistentFlags().String("history", "", "sqlite database recording evaluation runs")
	evalCmd.Flags().Int("concurrency", 0, "parallel uploads (default from config, 1)")
	evalCmd.Flags().Float64("rps", 0, "max uploads per second (0 = unlimited)")
	evalCmd.Flags().Duration("timeout", 0, "per-upload timeout (default from config)")
	evalHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list")

	_ = viper.BindPFlag("harness.history_db", evalCmd.PersistentFlags().Lookup("history"))
	_ = viper.BindPFlag("harness.concurrency", evalCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("harness.requests_per_second", evalCmd.Flags().Lookup("rps"))
	_ = viper.BindPFlag("harness.timeout", evalCmd.Flags().Lookup("timeout"))
}

// evalArgs holds the positional arguments of eval
type evalArgs struct {
	expected int
	endpoint string
	dir      string
	output   string
}

// parseEvalArgs returns false when the arguments only warrant the usage text
func parseEvalArgs(args []string) (evalArgs, bool) {
	if len(args) < 3 {
		return evalArgs{}, false
	}

	expected, err := harness.ParseExpected(args[0])
	if err != nil {
		return evalArgs{}, false
	}

	parsed := evalArgs{expected: expected, endpoint: args[1], dir: args[2]}
	if len(args) > 3 {
		parsed.output = args[3]
	}
	return parsed, true
}

func runEval(cmd *cobra.Command, args []string) error {
	parsed, ok := parseEvalArgs(args)
	if !ok {
		fmt.Fprint(cmd.OutOrStdout(), evalUsage)
		return nil
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := harness.NewClient(parsed.endpoint, cfg.Harness.Timeout, cfg.Harness.HTTPProxy, cfg.Harness.HTTPSProxy)
	h := harness.New(client, harness.Options{
		Concurrency:       cfg.Harness.Concurrency,
		RequestsPerSecond: cfg.Harness.RequestsPerSecond,
	})

	report, runErr := h.Run(ctx, parsed.dir, parsed.expected)
	harness.PrintSummary(cmd.OutOrStdout(), report)
	if runErr != nil {
		return fmt.Errorf("evaluation interrupted: %w", runErr)
	}

	if parsed.output != "" {
		if err := harness.WriteReport(parsed.output, report); err != nil {
			util.Log.WithError(err).WithField("path", parsed.output).Error("cannot write report")
		}
	}

	if cfg.Harness.HistoryDB != "" {
		recordRun(ctx, cfg, parsed, report)
	}

	return nil
}

// recordRun stores a finished run. History is best effort and never fails an evaluation.
func recordRun(ctx context.Context, cfg *model.Config, parsed evalArgs, report *harness.EvalReport) {
	db, err := openHistory(cfg)
	if err != nil {
		util.Log.WithError(err).Warn("run history unavailable")
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, parsed.endpoint, parsed.dir, report)
	if err != nil {
		util.Log.WithError(err).Warn("cannot record run")
		return
	}
	util.Log.WithField("run", id).Info("run recorded")
}

func runEvalHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Harness.HistoryDB == "" {
		return fmt.Errorf("no history database: pass --history or set harness.history_db")
	}

	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func openHistory(cfg *model.Config) (*storage.DB, error) {
	path, err := homedir.Expand(cfg.Harness.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("expand history path: %w", err)
	}
	return storage.Open(path)
}

func printRuns(w io.Writer, runs []storage.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tEXPECT\tFILES\tHITS\tMISSES\tFAILS\tACCURACY\tDIR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%.3f\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.ExpectedResult,
			r.FilesAnalyzed, r.Hits, r.Misses, r.Fails, r.Accuracy, r.Dir)
	}
	_ = tw.Flush()
}
