package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/telemetry"
	"github.com/ppiankov/provscan/internal/util"
)

// Version is the provscan release, overridden at build time
var Version = "0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "provscan",
	Short: "provscan - C2PA provenance scoring and classification",
	Long: `provscan reads the C2PA provenance manifests embedded in images and video,
scores how suspicious and how well evidenced the content is, and classifies it
as Genuine, Modified, Generated or Unknown.

A report describes what the provenance data says about a file. Files without
provenance data are Unknown, not fake.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "provscan v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.provscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setupViper(viper.GetViper(), cfgFile); err != nil {
		util.Log.WithError(err).Warn("config file not loaded")
		return
	}
	if used := viper.ConfigFileUsed(); used != "" {
		util.Log.WithField("file", used).Debug("using config file")
	}
}

// setupViper registers defaults and environment bindings, then reads the
// config file. A missing default config file is not an error.
func setupViper(v *viper.Viper, file string) error {
	if err := registerDefaults(v); err != nil {
		return err
	}

	// PROVSCAN_SERVER_ADDR -> server.addr
	v.SetEnvPrefix("PROVSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "PROVSCAN_LLM_API_KEY", "OPENAI_API_KEY")

	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	dir, err := configDir()
	if err != nil {
		return err
	}
	v.AddConfigPath(dir)
	v.SetConfigType("yaml")
	v.SetConfigName("config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// registerDefaults seeds viper with the built-in configuration so that
// environment variables can override any key
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var defaults map[string]interface{}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Keys the YAML encoding omits when empty
	for _, key := range []string{
		"cache.redis_addr", "harness.history_db", "harness.http_proxy", "harness.https_proxy",
		"llm.api_key", "llm.base_url", "telemetry.endpoint",
	} {
		v.SetDefault(key, "")
	}
	return nil
}

// loadConfig decodes the effective configuration over the defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := util.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if err := util.SetLogFormat(cfg.Log.Format); err != nil {
		return nil, err
	}

	return cfg, nil
}

// startTelemetry installs tracing when enabled and returns its shutdown
func startTelemetry(ctx context.Context, cfg *model.Config) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.Init(ctx, "provscan", Version, cfg.Telemetry.Endpoint)
	if err != nil {
		util.Log.WithError(err).Warn("telemetry disabled")
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			util.Log.WithError(err).Debug("telemetry shutdown")
		}
	}
}

func configDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".provscan"), nil
}
