package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newstag/internal/articles"
	"github.com/ppiankov/newstag/internal/model"
	"github.com/ppiankov/newstag/internal/output"
	"github.com/ppiankov/newstag/internal/worker"
)

var (
	batchFlags   engineFlags
	batchOut     string
	batchJSONOut string
	batchWorkers int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <articles.csv>",
	Short: "Classify every article of a scraped articles CSV in parallel",
	Long: `Batch classifies the articles of a CSV file (id,date,title,link,content),
as written by 'newstag scrape':
- Articles are classified concurrently by a pool of workers
- A failed article is reported and does not stop the batch
- Rows of all articles go into one CSV, ordered by article id
- The same results are written as a JSON association list

Example:
  newstag batch economy_articles.csv
  newstag batch economy_articles.csv --workers 8 --out results.csv
  newstag batch economy_articles.csv --engine llm --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addEngineFlags(batchCmd, &batchFlags)
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "batch_analysis.csv", "combined CSV output file")
	batchCmd.Flags().StringVar(&batchJSONOut, "json-out", "batch_analysis.json", "JSON association output file (empty to skip)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := batchFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = batchWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	_, err = classifyBatch(ctx, cfg, args[0], batchOut, batchJSONOut, os.Stderr)
	return err
}

// batchSummary counts the outcome of a batch run
type batchSummary struct {
	Articles int
	Matched  int
	Rows     int
	Failed   int
}

// classifyBatch classifies every article in inputPath and writes the
// combined CSV and JSON outputs. Progress goes to log.
func classifyBatch(ctx context.Context, cfg *model.Config, inputPath, csvPath, jsonPath string, log io.Writer) (*batchSummary, error) {
	list, err := articles.Load(inputPath)
	if err != nil {
		return nil, err
	}

	dict, err := loadDictionary(cfg)
	if err != nil {
		return nil, err
	}

	classifier, err := buildClassifier(cfg, dict)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "  newstag Batch Classification\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "  Input file:   %s\n", inputPath)
	_, _ = fmt.Fprintf(log, "  Articles:     %d\n", len(list))
	_, _ = fmt.Fprintf(log, "  Engine:       %s\n", classifier.Name())
	_, _ = fmt.Fprintf(log, "  Workers:      %d\n", cfg.Concurrency.Workers)
	_, _ = fmt.Fprintf(log, "\n")

	// Workers report concurrently
	var mu sync.Mutex
	processor := worker.NewBatchProcessor(classifier, cfg.Concurrency.Workers)
	processor.OnResult(func(r *worker.ClassifyResult) {
		mu.Lock()
		defer mu.Unlock()
		if r.Error != nil {
			_, _ = fmt.Fprintf(log, "✗ [%d] %s: %v\n", r.Article.ID, r.Article.Title, r.Error)
			return
		}
		if verbose {
			_, _ = fmt.Fprintf(log, "✓ [%d] %s (%d rows)\n", r.Article.ID, r.Article.Title, len(r.Results))
		}
	})

	results := processor.ProcessArticles(ctx, list)

	summary := &batchSummary{Articles: len(results)}
	batch := make([]output.ArticleResults, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			summary.Failed++
			continue
		}
		if len(r.Results) > 0 {
			summary.Matched++
			summary.Rows += len(r.Results)
		}
		batch = append(batch, output.ArticleResults{Article: r.Article, Results: r.Results})
	}

	renderer := output.NewRenderer(log)
	written, err := renderer.RenderBatchCSV(batch, csvPath)
	if err != nil {
		return summary, err
	}
	if jsonPath != "" {
		if err := renderer.RenderAssociations(batch, jsonPath); err != nil {
			return summary, err
		}
	}

	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "  Batch Complete\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "  Total:     %d articles\n", summary.Articles)
	_, _ = fmt.Fprintf(log, "  Matched:   %d (%d rows)\n", summary.Matched, summary.Rows)
	_, _ = fmt.Fprintf(log, "  Failures:  %d\n", summary.Failed)
	if written {
		_, _ = fmt.Fprintf(log, "  CSV:       %s\n", csvPath)
	} else {
		_, _ = fmt.Fprintf(log, "  CSV:       not written (%s)\n", NoMatchMessage)
	}
	if jsonPath != "" {
		_, _ = fmt.Fprintf(log, "  JSON:      %s\n", jsonPath)
	}
	_, _ = fmt.Fprintf(log, "\n")

	if summary.Failed > 0 && summary.Failed == summary.Articles {
		return summary, fmt.Errorf("all %d articles failed", summary.Failed)
	}
	return summary, nil
}
