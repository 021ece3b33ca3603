// The update job fetches daily prices through the retrying provider
// chain and upserts them. This is the only binary where backoff waits
// and infrastructure alerts actually run; the HTTP server never fetches.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"stockwatch/internal/app/di"
	"stockwatch/internal/config"
	"stockwatch/internal/platform/cache"
	infradb "stockwatch/internal/platform/db"
	infraredis "stockwatch/internal/platform/redis"
)

const (
	dateFormat   = "2006-01-02"
	batchTimeout = 10 * time.Minute
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		symbolsCSV string
		startStr   string
		endStr     string
		days       int
		force      bool
	)

	cmd := &cobra.Command{
		Use:           "update",
		Short:         "Fetch daily prices through the provider chain and upsert them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(".env"); err != nil {
				log.Println("[INFO] .env not found; using system environment variables")
			}
			if configPath == "" {
				configPath = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			end := time.Now().UTC()
			if endStr != "" {
				end, err = time.Parse(dateFormat, endStr)
				if err != nil {
					return fmt.Errorf("bad --end: %w", err)
				}
			}
			if startStr != "" && cmd.Flags().Changed("days") {
				return errors.New("provide either --start or --days, not both")
			}
			start := end.AddDate(0, 0, -days)
			if startStr != "" {
				start, err = time.Parse(dateFormat, startStr)
				if err != nil {
					return fmt.Errorf("bad --start: %w", err)
				}
			}
			if start.After(end) {
				return errors.New("--start must not be after --end")
			}

			db, err := infradb.Open(cfg.Database)
			if err != nil {
				return err
			}

			// Redis is optional here, but going through the caching
			// decorator keeps the server's cached ranges invalidated
			// when fresh rows land.
			var rdb *redisv9.Client
			if tmp, err := infraredis.NewClient(cfg.Redis); err != nil {
				log.Println("[WARN] Redis unavailable. Updating without cache invalidation.")
			} else {
				rdb = tmp
				defer rdb.Close()
			}

			priceRepo := di.NewPriceStore(db, rdb, cache.TimeUntilNextUTCDay())
			alerts := di.NewAlertDispatcher(cfg.Alerts, db)
			uc, err := di.NewMarketData(cfg, priceRepo, alerts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
			defer cancel()

			symbols := splitSymbols(symbolsCSV)
			if len(symbols) == 0 {
				symbols = cfg.Health.Symbols
			}
			if len(symbols) == 0 {
				symbols, err = priceRepo.DistinctSymbols(ctx)
				if err != nil {
					return fmt.Errorf("load stored symbols: %w", err)
				}
			}
			if len(symbols) == 0 {
				return errors.New("no symbols to update: pass --symbols or configure health.symbols")
			}

			counts := uc.UpdateForSymbols(ctx, symbols, start, end, force)

			total := 0
			for _, s := range symbols {
				fmt.Printf("%s: %d rows\n", s, counts[s])
				total += counts[s]
			}
			fmt.Printf("updated %d symbols, %d rows (%s to %s)\n",
				len(symbols), total, start.Format(dateFormat), end.Format(dateFormat))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default $CONFIG_PATH)")
	cmd.Flags().StringVar(&symbolsCSV, "symbols", "", "Comma-separated symbols (default: configured, then stored symbols)")
	cmd.Flags().StringVar(&startStr, "start", "", "Range start, YYYY-MM-DD (overrides --days)")
	cmd.Flags().StringVar(&endStr, "end", "", "Range end, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "Days back from end when --start is not given")
	cmd.Flags().BoolVar(&force, "force", false, "Refetch even when stored rows already cover the range")

	return cmd
}

func splitSymbols(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
