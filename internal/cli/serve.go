package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/provscan/internal/server"
	"github.com/ppiankov/provscan/internal/util"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload endpoint",
	Long: `Serve accepts multipart uploads on POST /upload (field "image"), analyzes
each file and answers with a verdict and the full report.

Also serves GET /health and GET /metrics.

Example:
  provscan serve
  provscan serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Bool("explain", false, "add LLM explanations to responses (requires llm.provider)")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopTelemetry := startTelemetry(ctx, cfg)
	defer stopTelemetry()

	withExplanation, _ := cmd.Flags().GetBool("explain")
	p, err := newPipeline(cfg, true, withExplanation)
	if err != nil {
		return err
	}

	util.Log.WithField("extractor", cfg.Extractor.Binary).Info("starting upload server")
	return server.New(cfg.Server, p).Run(ctx)
}
