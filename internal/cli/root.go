package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newstag/internal/model"
)

// version is set at build time with -ldflags "-X ...cli.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newstag",
	Short: "newstag - tag Vietnamese financial news with listed companies and sectors",
	Long: `newstag reads Vietnamese financial news and reports which listed
companies and industry sectors an article mentions.

Companies and sectors come from two CSV dictionaries. Matching is fuzzy
(partial ratio against company names and keywords); sectors are reported
only when no company matched. An LLM engine is available as an alternative.

It can also collect the latest articles from vneconomy.vn for batch runs.`,
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
		fmt.Fprintf(cmd.OutOrStdout(), "newstag v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.newstag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env, the config file and NEWSTAG_* environment variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠️  Could not read .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir, err := configDir(); err == nil {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("NEWSTAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	}
	// Keys without a default are invisible to Unmarshal unless bound
	for _, key := range []string{"llm.api_key", "llm.base_url", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		_ = viper.BindEnv(key)
	}

	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		fmt.Fprintf(os.Stderr, "⚠️  Could not read config file %s: %v\n", cfgFile, err)
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".newstag"), nil
}

// registerDefaults makes every config key known to v, so environment
// variables can override keys that appear in no config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for key, value := range node {
			if child, ok := value.(map[string]any); ok {
				walk(prefix+key+".", child)
				continue
			}
			v.SetDefault(prefix+key, value)
		}
	}
	walk("", tree)

	return nil
}

// loadConfig overlays the config file and environment onto the defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// logf prints progress to stderr when verbose output is on
func logf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠️  "+format, args...)
}
