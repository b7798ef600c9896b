package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
	"github.com/alkoparse/alkoteka-crawler/internal/clock/system"
	"github.com/alkoparse/alkoteka-crawler/internal/crawler"
	"github.com/alkoparse/alkoteka-crawler/internal/logging"
	"github.com/alkoparse/alkoteka-crawler/internal/ops"
	"github.com/alkoparse/alkoteka-crawler/internal/sink"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one full catalog crawl",
	Long: `Crawl resolves the configured city, walks every configured category
page by page, fetches each product's detail payload and emits normalized
items to the configured sink (jsonl, postgres or pubsub).`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("city", "", "city name to crawl as (e.g. Краснодар)")
	crawlCmd.Flags().Int("per-page", 40, "listing page size")
	crawlCmd.Flags().String("proxy", "", "proxy URL for all requests")
	crawlCmd.Flags().String("categories", "categories.txt", "path to the category URL list")
	crawlCmd.Flags().String("out", "data/items.jsonl", "path of the JSONL output file")

	_ = viper.BindPFlag("crawler.city", crawlCmd.Flags().Lookup("city"))
	_ = viper.BindPFlag("crawler.per_page", crawlCmd.Flags().Lookup("per-page"))
	_ = viper.BindPFlag("crawler.proxy", crawlCmd.Flags().Lookup("proxy"))
	_ = viper.BindPFlag("crawler.categories_file", crawlCmd.Flags().Lookup("categories"))
	_ = viper.BindPFlag("sink.jsonl.path", crawlCmd.Flags().Lookup("out"))

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	logger := logging.L

	cfg, err := crawler.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := buildSink(ctx, logger)
	if err != nil {
		return fmt.Errorf("build sink: %w", err)
	}

	var opsServer *ops.Server
	if viper.GetBool("ops.enabled") {
		opsServer = ops.NewServer(viper.GetString("ops.listen"), logger)
		opsServer.Start()
	}

	spider := crawler.NewSpider(cfg, catalog.NewNormalizer(system.Clock{}), out, logger)
	runErr := spider.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := out.Close(closeCtx); err != nil {
		logger.Error("Failed to close sink", zap.Error(err))
	}
	if opsServer != nil {
		if err := opsServer.Shutdown(closeCtx); err != nil {
			logger.Error("Failed to shut down ops server", zap.Error(err))
		}
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Info("Crawl interrupted")
		return nil
	}
	return runErr
}

func buildSink(ctx context.Context, logger *zap.Logger) (sink.Sink, error) {
	switch provider := viper.GetString("sink.provider"); provider {
	case "jsonl":
		return sink.NewJSONL(viper.GetString("sink.jsonl.path"), logger)
	case "postgres":
		return sink.NewPostgres(ctx, sink.PostgresConfig{
			DSN:   viper.GetString("sink.postgres.dsn"),
			Table: viper.GetString("sink.postgres.table"),
		})
	case "pubsub":
		return sink.NewPubSub(ctx,
			viper.GetString("sink.pubsub.project"),
			viper.GetString("sink.pubsub.topic"))
	default:
		return nil, fmt.Errorf("unknown sink provider %q", provider)
	}
}
