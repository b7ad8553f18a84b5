package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newstag/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage newstag configuration",
	Long: `Manage newstag configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (NEWSTAG_*, e.g. NEWSTAG_MATCH_THRESHOLD)
3. Config file (~/.newstag/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file and environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		_, _ = fmt.Fprintln(out, "  Current Configuration")
		_, _ = fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, string(yamlData))

		if cfg.LLM.APIKey != "" {
			_, _ = fmt.Fprintf(out, "llm api key: set (%d chars, not shown)\n\n", len(cfg.LLM.APIKey))
		}

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.newstag/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		path, err := writeDefaultConfig(dir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "✓ Created default configuration: %s\n", path)
		_, _ = fmt.Fprintf(out, "\nTo view the configuration:\n")
		_, _ = fmt.Fprintf(out, "  newstag config show\n")
		_, _ = fmt.Fprintf(out, "\nTo customize, edit the file with your preferred editor:\n")
		_, _ = fmt.Fprintf(out, "  $EDITOR %s\n\n", path)
		return nil
	},
}

// writeDefaultConfig writes config.yaml with the built-in defaults into dir.
// An existing file is never overwritten.
func writeDefaultConfig(dir string) (path string, err error) {
	path = filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s\nUse 'newstag config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	printf := func(format string, a ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# newstag configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (NEWSTAG_*)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", yamlData)
	printf("\n# API keys are read from the environment (or a .env file):\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	printf("#   export GEMINI_API_KEY=...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

	if err != nil {
		return "", fmt.Errorf("error writing config: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
