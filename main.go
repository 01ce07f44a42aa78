package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/calder-fi/hledger-engine/internal/budget"
	"github.com/calder-fi/hledger-engine/internal/config"
	"github.com/calder-fi/hledger-engine/internal/gitsync"
	"github.com/calder-fi/hledger-engine/internal/hledger"
	"github.com/calder-fi/hledger-engine/internal/ledger"
	"github.com/calder-fi/hledger-engine/internal/logging"
	"github.com/calder-fi/hledger-engine/internal/prices"
)

func main() {
	journalFlag := flag.String("f", "", "journal file, overrides LEDGER_FILE and the config file")
	taskFlag := flag.String("task", "check", "task to run: check, stats, balances, summary, report, positions, budget, sync, prices")
	reportFlag := flag.String("report", "is", "report kind for -task report: is, bs, cf")
	monthsFlag := flag.Int("months", 3, "period length in months for -task report, 0 means year to date")
	cronFlag := flag.String("cron", "", "cron schedule, runs the task repeatedly instead of once")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*journalFlag)
	if err != nil {
		logrus.WithError(err).Fatal("config.Load")
		return
	}

	logger := logging.SetupLogging(cfg.LogLevel)
	logrus.Info("hledger-engine starting")

	eng := newEngine(cfg, logger)

	if *cronFlag == "" {
		if err := eng.runTask(*taskFlag, *reportFlag, *monthsFlag); err != nil {
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*cronFlag, func() {
		_ = eng.runTask(*taskFlag, *reportFlag, *monthsFlag)
	}); err != nil {
		logrus.WithError(err).Fatal("invalid -cron schedule")
		return
	}
	scheduler.Start()
	select {}
}

type engine struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *hledger.Client
	store  *budget.Store
	syncer *gitsync.Syncer
	cache  *prices.Cache
}

func newEngine(cfg *config.Config, logger *logrus.Logger) *engine {
	runner := hledger.NewExecRunner(cfg.HledgerBinary, cfg.CommandTimeout)
	client := hledger.NewClient(cfg.JournalFile, runner)

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	return &engine{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  budget.NewStore(cfg.JournalFile, client),
		syncer: gitsync.NewSyncer(cfg.JournalFile, gitsync.NewExecRunner(cfg.CommandTimeout)),
		cache:  prices.NewCache(filepath.Join(cacheDir, "hledger-engine"), prices.NewExecRunner("", cfg.CommandTimeout), logger),
	}
}

func (e *engine) runTask(name, reportKind string, months int) error {
	ctx := context.Background()
	now := time.Now()

	switch name {
	case "check":
		return logging.RunTask("Check", e.logger, func(logData *logging.LogData) error {
			version, err := e.client.Version(ctx)
			if err != nil {
				return err
			}
			logData.AddData("hledger_version", version)
			if err := e.client.Check(ctx); err != nil {
				return err
			}
			fmt.Printf("journal is valid (hledger %s)\n", version)
			return nil
		})

	case "stats":
		return logging.RunTask("Stats", e.logger, func(logData *logging.LogData) error {
			stats, err := e.client.Stats(ctx)
			if err != nil {
				return err
			}
			logData.Dump("stats", stats)
			fmt.Printf("transactions: %d\n", stats.Transactions)
			fmt.Printf("accounts:     %d\n", stats.Accounts)
			fmt.Printf("commodities:  %s\n", strings.Join(stats.Commodities, ", "))
			fmt.Printf("span:         %s to %s\n", stats.Begin, stats.End)
			return nil
		})

	case "balances":
		return logging.RunTask("Balances", e.logger, func(logData *logging.LogData) error {
			balances, err := e.client.AccountBalances(ctx, "", hledger.Period{})
			if err != nil {
				return err
			}
			logData.AddData("accounts", len(balances))
			rows := make([][2]string, 0, len(balances))
			for _, b := range balances {
				rows = append(rows, [2]string{b.Account, b.Amount.String()})
			}
			printColumns(rows)
			return nil
		})

	case "summary":
		return logging.RunTask("Summary", e.logger, func(logData *logging.LogData) error {
			period := hledger.Month(now)
			summary, err := e.client.PeriodSummary(ctx, period)
			if err != nil {
				return err
			}
			logData.Dump("summary", summary)

			symbol := ledger.NormalizeCommodity(summary.Commodity)
			fmt.Printf("income:    %s%s\n", symbol, summary.Income.StringFixed(2))
			fmt.Printf("expenses:  %s%s\n", symbol, summary.Expenses.StringFixed(2))
			fmt.Printf("invested:  %s%s\n", symbol, summary.Investments.StringFixed(2))
			fmt.Printf("net:       %s%s\n", symbol, summary.Net().StringFixed(2))

			breakdown, err := e.client.ExpenseBreakdown(ctx, period)
			if err != nil {
				return err
			}
			if len(breakdown) == 0 {
				return nil
			}
			fmt.Println()
			rows := make([][2]string, 0, len(breakdown))
			for _, b := range breakdown {
				rows = append(rows, [2]string{b.Account, b.Amount.String()})
			}
			printColumns(rows)
			return nil
		})

	case "report":
		return logging.RunTask("Report", e.logger, func(logData *logging.LogData) error {
			period := hledger.LastMonths(now, months)
			report, err := e.client.Report(ctx, hledger.ReportKind(reportKind), period, e.cfg.DefaultCommodity)
			if err != nil {
				return err
			}
			logData.AddData("rows", len(report.Rows))

			fmt.Println(report.Title)
			rows := make([][2]string, 0, len(report.Rows)+1)
			rows = append(rows, [2]string{"", strings.Join(report.PeriodHeaders, "  ")})
			for _, row := range report.Rows {
				if row.IsSectionHeader {
					rows = append(rows, [2]string{row.Label, ""})
					continue
				}
				rows = append(rows, [2]string{row.Label, strings.Join(row.Amounts, "  ")})
			}
			printColumns(rows)
			return nil
		})

	case "positions":
		return logging.RunTask("Positions", e.logger, func(logData *logging.LogData) error {
			pricesFile, err := e.cache.File(ctx, e.cfg.PriceTickers)
			if err != nil {
				return err
			}
			positions, err := e.client.Positions(ctx, pricesFile)
			if err != nil {
				return err
			}
			logData.Dump("positions", positions)
			if len(positions) == 0 {
				fmt.Println("no investment positions")
				return nil
			}
			for _, p := range positions {
				market := "-"
				if p.MarketValue.Commodity != "" {
					market = p.MarketValue.String()
				}
				fmt.Printf("%s: %s held, cost %s, market %s\n",
					p.Commodity, p.Quantity.String(), p.CostBasis.String(), market)
			}
			return nil
		})

	case "budget":
		return logging.RunTask("Budget", e.logger, func(logData *logging.LogData) error {
			rules, err := e.store.Rules()
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println("no budget rules defined")
				return nil
			}
			rows, err := e.client.BudgetVsActual(ctx, rules, hledger.Month(now))
			if err != nil {
				return err
			}
			logData.AddData("rules", len(rows))
			out := make([][2]string, 0, len(rows))
			for _, row := range rows {
				symbol := ledger.NormalizeCommodity(row.Commodity)
				out = append(out, [2]string{row.Account, fmt.Sprintf("%s%s of %s%s (%.0f%%)",
					symbol, row.Actual.StringFixed(2), symbol, row.Budget.StringFixed(2), row.UsedPct())})
			}
			printColumns(out)
			return nil
		})

	case "sync":
		return logging.RunTask("Sync", e.logger, func(*logging.LogData) error {
			if !e.cfg.GitSync {
				return fmt.Errorf("git sync is disabled in the config file")
			}
			if !e.syncer.IsRepo(ctx) {
				return fmt.Errorf("journal directory is not a git repository")
			}
			message, err := e.syncer.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Println(message)
			return nil
		})

	case "prices":
		return logging.RunTask("Prices", e.logger, func(*logging.LogData) error {
			if len(e.cfg.PriceTickers) == 0 {
				fmt.Println("no price tickers configured")
				return nil
			}
			if err := e.cache.Refresh(ctx, e.cfg.PriceTickers); err != nil {
				return err
			}
			fmt.Println(e.cache.Path())
			return nil
		})

	default:
		err := fmt.Errorf("unknown task %q, want one of check, stats, balances, summary, report, positions, budget, sync, prices", name)
		e.logger.WithError(err).Error("Task.Dispatch.Error")
		return err
	}
}

// printColumns prints label/value rows with the values aligned one column
// past the longest label. Widths count runes, not bytes, so currency
// symbols do not skew the layout.
func printColumns(rows [][2]string) {
	width := 0
	for _, row := range rows {
		if n := utf8.RuneCountInString(row[0]); n > width {
			width = n
		}
	}
	for _, row := range rows {
		if row[1] == "" {
			fmt.Println(row[0])
			continue
		}
		fmt.Printf("%s%s  %s\n", row[0], strings.Repeat(" ", width-utf8.RuneCountInString(row[0])), row[1])
	}
}
