// The healthcheck command probes each configured provider with a canary
// symbol and checks how stale the stored history is. It is meant to run
// out-of-band (cron), so provider problems surface before the nightly
// update job trips over them.
//
// Exit codes: 0 healthy, 1 unhealthy, 2 execution error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stockwatch/internal/app/di"
	"stockwatch/internal/config"
	healthentity "stockwatch/internal/feature/health/domain/entity"
	healthusecase "stockwatch/internal/feature/health/usecase"
	pricesadapters "stockwatch/internal/feature/prices/adapters"
	infradb "stockwatch/internal/platform/db"
)

const (
	dateFormat   = "2006-01-02"
	checkTimeout = 2 * time.Minute
)

// errUnhealthy marks a completed run that found issues, as opposed to a
// run that could not complete.
var errUnhealthy = errors.New("health check reported issues")

func newRootCmd() *cobra.Command {
	var (
		configPath     string
		symbolsCSV     string
		thresholdHours int
		skipProviders  bool
		skipFreshness  bool
		alertOnFail    bool
		jsonOut        bool
	)

	cmd := &cobra.Command{
		Use:           "healthcheck",
		Short:         "Probe price providers and verify stored data freshness",
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
			if cmd.Flags().Changed("threshold-hours") {
				cfg.Health.StalenessThresholdHours = thresholdHours
			}

			db, err := infradb.Open(cfg.Database)
			if err != nil {
				return err
			}

			// The freshness check must see live storage, so the plain
			// repository is used here, never the caching decorator.
			store := pricesadapters.NewPriceRepository(db)
			alerts := di.NewAlertDispatcher(cfg.Alerts, db)
			hu, err := di.NewHealth(cfg, store, alerts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			report, err := hu.RunHealthCheck(ctx, healthusecase.RunOptions{
				SkipProviders:  skipProviders,
				SkipFreshness:  skipFreshness,
				Symbols:        splitSymbols(symbolsCSV),
				AlertOnFailure: alertOnFail,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printHuman(report)
			}

			if !report.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default $CONFIG_PATH)")
	cmd.Flags().StringVar(&symbolsCSV, "symbols", "", "Comma-separated symbols to check (default: configured, then stored symbols)")
	cmd.Flags().IntVar(&thresholdHours, "threshold-hours", 0, "Staleness threshold override in hours")
	cmd.Flags().BoolVar(&skipProviders, "skip-providers", false, "Skip the provider canary probes")
	cmd.Flags().BoolVar(&skipFreshness, "skip-freshness", false, "Skip the stored-data freshness checks")
	cmd.Flags().BoolVar(&alertOnFail, "alert", false, "Send an infrastructure alert when unhealthy")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}

// providerOut and friends shape the JSON output; the domain types stay
// free of serialization concerns.
type providerOut struct {
	Name           string `json:"name"`
	Available      bool   `json:"available"`
	CanFetch       bool   `json:"can_fetch"`
	Error          string `json:"error,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Records        int    `json:"records"`
}

type freshnessOut struct {
	Symbol         string  `json:"symbol"`
	LatestDate     *string `json:"latest_date"` // null when no rows stored
	DaysStale      int     `json:"days_stale"`
	IsStale        bool    `json:"is_stale"`
	ThresholdHours int     `json:"threshold_hours"`
}

type reportOut struct {
	CheckedAt      time.Time      `json:"checked_at"`
	OverallHealthy bool           `json:"overall_healthy"`
	Providers      []providerOut  `json:"providers"`
	Freshness      []freshnessOut `json:"freshness"`
	Summary        string         `json:"summary"`
}

func printJSON(report *healthentity.Report) error {
	out := reportOut{
		CheckedAt:      report.CheckedAt,
		OverallHealthy: report.OverallHealthy,
		Summary:        report.Summary,
	}
	for _, p := range report.Providers {
		out.Providers = append(out.Providers, providerOut{
			Name:           p.Name,
			Available:      p.Available,
			CanFetch:       p.CanFetch,
			Error:          p.Error,
			ResponseTimeMs: p.ResponseTime.Milliseconds(),
			Records:        p.Records,
		})
	}
	for _, fs := range report.Freshness {
		var latest *string
		if fs.LatestDate != nil {
			s := fs.LatestDate.Format(dateFormat)
			latest = &s
		}
		out.Freshness = append(out.Freshness, freshnessOut{
			Symbol:         fs.Symbol,
			LatestDate:     latest,
			DaysStale:      fs.DaysStale,
			IsStale:        fs.IsStale,
			ThresholdHours: fs.ThresholdHours,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHuman(report *healthentity.Report) {
	fmt.Printf("checked at %s\n", report.CheckedAt.Format(time.RFC3339))

	if len(report.Providers) > 0 {
		fmt.Println("providers:")
		for _, p := range report.Providers {
			switch {
			case !p.Available:
				fmt.Printf("  %-14s unavailable (skipped)\n", p.Name)
			case p.CanFetch:
				fmt.Printf("  %-14s ok    %d records in %s\n",
					p.Name, p.Records, p.ResponseTime.Round(time.Millisecond))
			default:
				fmt.Printf("  %-14s FAIL  %s\n", p.Name, p.Error)
			}
		}
	}

	if len(report.Freshness) > 0 {
		fmt.Println("freshness:")
		for _, fs := range report.Freshness {
			switch {
			case fs.LatestDate == nil:
				fmt.Printf("  %-8s no rows stored  STALE\n", fs.Symbol)
			case fs.IsStale:
				fmt.Printf("  %-8s latest %s  %d days behind (threshold %dh)  STALE\n",
					fs.Symbol, fs.LatestDate.Format(dateFormat), fs.DaysStale, fs.ThresholdHours)
			default:
				fmt.Printf("  %-8s latest %s  %d days behind  ok\n",
					fs.Symbol, fs.LatestDate.Format(dateFormat), fs.DaysStale)
			}
		}
	}

	if report.OverallHealthy {
		fmt.Println("overall: healthy")
	} else {
		fmt.Println("overall: UNHEALTHY")
		fmt.Println(report.Summary)
	}
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
		if errors.Is(err, errUnhealthy) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}
