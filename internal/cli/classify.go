package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newstag/internal/articles"
	"github.com/ppiankov/newstag/internal/model"
	"github.com/ppiankov/newstag/internal/output"
)

// NoMatchMessage is printed when an article matches nothing
const NoMatchMessage = "Không tìm thấy công ty hoặc ngành."

var (
	classifyFlags engineFlags
	classifyOut   string
	classifyJSON  string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <article.txt>",
	Short: "Find the companies and sectors an article mentions",
	Long: `Classify reads one article from a UTF-8 text file and matches it against
the company and sector dictionaries.

Companies match when their official name, or one of their keywords, is
similar enough to some part of the article. Sectors are reported only when
no company matched. Results are written as CSV (STT, Tên công ty,
Mã cổ phiếu, Tên ngành); nothing is written when there is no match.

Example:
  newstag classify article.txt
  newstag classify article.txt --threshold 90 --out result.csv
  newstag classify article.txt --engine llm --llm-provider gemini`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	addEngineFlags(classifyCmd, &classifyFlags)
	classifyCmd.Flags().StringVarP(&classifyOut, "out", "o", "output_analysis.csv", "CSV output file")
	classifyCmd.Flags().StringVar(&classifyJSON, "json", "", "also write the rows as JSON to this file")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := classifyFlags.apply(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return classifyFile(ctx, cfg, args[0], classifyOut, classifyJSON, cmd.OutOrStdout())
}

// classifyFile runs the whole single-article flow: dictionaries, article,
// classification and result files.
func classifyFile(ctx context.Context, cfg *model.Config, articlePath, csvPath, jsonPath string, out io.Writer) error {
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}

	classifier, err := buildClassifier(cfg, dict)
	if err != nil {
		return err
	}

	content, found, err := articles.ReadText(articlePath)
	if err != nil {
		return err
	}
	if !found {
		warnf("Article file not found: %s (classifying empty content)\n", articlePath)
	}

	article := model.Article{
		ID:      1,
		Title:   strings.TrimSuffix(filepath.Base(articlePath), filepath.Ext(articlePath)),
		Content: content,
	}

	logf("Classifying %s with %s (threshold %d)\n", articlePath, classifier.Name(), cfg.Match.Threshold)
	results, err := classifier.Classify(ctx, article)
	if err != nil {
		return fmt.Errorf("classify %s: %w", articlePath, err)
	}

	return writeResults(results, csvPath, jsonPath, out)
}

func writeResults(results []model.MatchResult, csvPath, jsonPath string, out io.Writer) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, NoMatchMessage)
		return nil
	}

	renderer := output.NewRenderer(out)
	if verbose {
		renderer.RenderSummary(results)
	}

	if _, err := renderer.RenderCSV(results, csvPath); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Results saved to: %s\n", csvPath)

	if jsonPath != "" {
		if err := renderer.RenderJSON(results, jsonPath); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ JSON saved to: %s\n", jsonPath)
	}

	return nil
}
