package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newstag/internal/articles"
	"github.com/ppiankov/newstag/internal/cache"
	"github.com/ppiankov/newstag/internal/model"
	"github.com/ppiankov/newstag/internal/scrape"
	"github.com/ppiankov/newstag/internal/util"
	"github.com/ppiankov/newstag/internal/worker"
)

var (
	scrapePages   int
	scrapeMax     int
	scrapeOut     string
	scrapeNoCache bool
	scrapeNoRobot bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect the latest stock-market articles from vneconomy.vn",
	Long: `Scrape walks the first listing pages of the stock-market section, keeps
the newest unique articles and downloads their text.

Requests are rate-limited per host, checked against robots.txt and cached
(memory and disk). A listing page or article that fails is reported and
skipped; articles without text are kept with empty content.

The result is a CSV with columns id,date,title,link,content.

Example:
  newstag scrape
  newstag scrape --pages 5 --max 30 --out articles.csv
  newstag scrape --no-cache`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	defaults := model.DefaultConfig()
	scrapeCmd.Flags().IntVar(&scrapePages, "pages", defaults.Scrape.Pages, "number of listing pages to read")
	scrapeCmd.Flags().IntVar(&scrapeMax, "max", defaults.Scrape.MaxArticles, "maximum number of articles to keep")
	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "economy_articles.csv", "articles CSV output file")
	scrapeCmd.Flags().BoolVar(&scrapeNoCache, "no-cache", false, "disable cache (force fresh fetch)")
	scrapeCmd.Flags().BoolVar(&scrapeNoRobot, "ignore-robots", false, "do not consult robots.txt")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("pages") {
		cfg.Scrape.Pages = scrapePages
	}
	if flags.Changed("max") {
		cfg.Scrape.MaxArticles = scrapeMax
	}
	if scrapeNoCache {
		cfg.Cache.Enabled = false
	}
	if scrapeNoRobot {
		cfg.Scrape.RespectRobots = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = scrapeArticles(ctx, cfg, scrapeOut, os.Stderr)
	return err
}

// newFetcher wires the HTTP client, cache, limiter and robots checker
func newFetcher(cfg *model.Config) *scrape.Fetcher {
	opts := []scrape.FetcherOption{
		scrape.WithCache(cache.New(cfg.Cache), cfg.Cache.DiskTTL),
		scrape.WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
	}
	if cfg.Scrape.RespectRobots {
		opts = append(opts, scrape.WithRobots(util.NewRobotsChecker(util.NewHTTPClient(cfg.HTTP), cfg.HTTP.UserAgent)))
	}
	return scrape.NewFetcher(cfg.HTTP, opts...)
}

// scrapeArticles crawls the listing and saves the articles to outPath
func scrapeArticles(ctx context.Context, cfg *model.Config, outPath string, log io.Writer) (*scrape.CrawlResult, error) {
	progress := func(format string, args ...any) {
		_, _ = fmt.Fprintf(log, format, args...)
	}

	crawler := scrape.NewCrawler(newFetcher(cfg), cfg.Scrape, progress)
	result, err := crawler.Crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}

	if err := articles.Save(outPath, result.Articles); err != nil {
		return result, err
	}

	stats := result.Stats
	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "  Scrape Complete\n")
	_, _ = fmt.Fprintf(log, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "  Listing pages:  %d fetched, %d failed\n", stats.PagesFetched, stats.PagesFailed)
	_, _ = fmt.Fprintf(log, "  Links found:    %d\n", stats.LinksFound)
	_, _ = fmt.Fprintf(log, "  Articles:       %d (%d without content)\n", len(result.Articles), stats.EmptyContent)
	_, _ = fmt.Fprintf(log, "  Cache hits:     %d\n", stats.CacheHits)
	_, _ = fmt.Fprintf(log, "\n")
	_, _ = fmt.Fprintf(log, "✓ Articles saved to: %s\n", outPath)

	return result, nil
}
