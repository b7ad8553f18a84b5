package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newstag/internal/dictionary"
	"github.com/ppiankov/newstag/internal/model"
)

var (
	dictCompanies string
	dictSectors   string
	dropOut       string
)

// dictCmd groups dictionary maintenance commands
var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Inspect and maintain the company and sector dictionaries",
}

var dictCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate both dictionaries",
	Long: `Check loads the company and sector dictionaries with the same rules as
classification and reports the first malformed row (file, line, column).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("companies") {
			cfg.Dictionary.CompaniesPath = dictCompanies
		}
		if cmd.Flags().Changed("sectors") {
			cfg.Dictionary.SectorsPath = dictSectors
		}
		return checkDictionary(cfg, cmd.OutOrStdout())
	},
}

var dictDropColumnCmd = &cobra.Command{
	Use:   "drop-column <file> <column>",
	Short: "Remove a column from a CSV file",
	Long: `Drop-column removes the first column whose header matches <column>,
ignoring case and surrounding spaces. The file is rewritten in place unless
--out is given. A missing column is reported and leaves the file untouched.

Example:
  newstag dict drop-column dictionary_companies.csv "Sàn"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dropColumn(args[0], args[1], dropOut, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictCheckCmd)
	dictCmd.AddCommand(dictDropColumnCmd)

	defaults := model.DefaultConfig()
	dictCheckCmd.Flags().StringVar(&dictCompanies, "companies", defaults.Dictionary.CompaniesPath, "company dictionary CSV")
	dictCheckCmd.Flags().StringVar(&dictSectors, "sectors", defaults.Dictionary.SectorsPath, "sector dictionary CSV")
	dictDropColumnCmd.Flags().StringVarP(&dropOut, "out", "o", "", "write the result here instead of rewriting <file>")
}

func checkDictionary(cfg *model.Config, out io.Writer) error {
	dict, err := dictionary.Load(cfg.Dictionary.CompaniesPath, cfg.Dictionary.SectorsPath)
	if err != nil {
		return err
	}

	withKeywords := 0
	for _, c := range dict.Companies {
		if len(c.Keywords) > 0 {
			withKeywords++
		}
	}

	_, _ = fmt.Fprintf(out, "✓ %s: %d companies (%d with keywords)\n", cfg.Dictionary.CompaniesPath, len(dict.Companies), withKeywords)
	_, _ = fmt.Fprintf(out, "✓ %s: %d sectors\n", cfg.Dictionary.SectorsPath, dict.Sectors.Len())
	return nil
}

func dropColumn(path, column, outPath string, out io.Writer) error {
	if outPath == "" {
		outPath = path
	}

	matched, err := dictionary.DropColumn(path, outPath, column)
	if err != nil {
		return err
	}
	if matched == "" {
		warnf("Column %q not found in %s\n", column, path)
		return nil
	}

	_, _ = fmt.Fprintf(out, "✓ Removed column %q, saved to: %s\n", matched, outPath)
	return nil
}
