// Command monthly_summary prints the comparison of a month with the month
// before it, and mails it to REPORT_RECIPIENTS with -send.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/database"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/services"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
)

func main() {
	year := flag.Int("year", 0, "year of the month to summarize (default: previous month)")
	month := flag.Int("month", 0, "month 1-12 to summarize (default: previous month)")
	send := flag.Bool("send", false, "email the summary to REPORT_RECIPIENTS")
	asJSON := flag.Bool("json", false, "print the comparison as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Environment)

	clk := clock.NewReal(cfg.Location)
	*year, *month = defaultMonth(clk.Now(), *year, *month)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repos := repository.NewRepositories(db)
	reportSvc := services.NewReportService(repos.Income, repos.Expense, repos.Summary, clk, cfg.SummaryCacheTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmp, err := reportSvc.Comparison(ctx, services.ComparisonParams{Year: *year, Month: *month})
	if err != nil {
		log.Fatalf("Failed to build comparison: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cmp); err != nil {
			log.Fatalf("Failed to encode comparison: %v", err)
		}
	} else {
		printComparison(os.Stdout, cmp)
	}

	if !*send {
		return
	}
	if !cfg.EmailEnabled() {
		log.Fatal("RESEND_API_KEY, FROM_EMAIL and REPORT_RECIPIENTS must be set to send")
	}
	if err := services.NewEmailService(cfg).SendMonthlySummary(ctx, cmp); err != nil {
		log.Fatalf("Failed to send monthly summary: %v", err)
	}
	log.Printf("Monthly summary sent to %v", cfg.ReportRecipients)
}

// defaultMonth fills an unset year or month with the month before now
func defaultMonth(now time.Time, year, month int) (int, int) {
	if year != 0 && month != 0 {
		return year, month
	}
	py, pm := finance.PreviousMonth(now.Year(), now.Month())
	if year == 0 {
		year = py
	}
	if month == 0 {
		month = int(pm)
	}
	return year, month
}

func printComparison(out io.Writer, cmp *finance.Comparison) {
	fmt.Fprintf(out, "%s vs %s\n\n",
		cmp.CurrentRange.Start.Format("January 2006"), cmp.PreviousRange.Start.Format("January 2006"))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tCurrent\tPrevious\tChange\t%\t")
	row := func(name string, c finance.Change) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", name,
			finance.FormatTHB(c.Current), finance.FormatTHB(c.Previous), finance.FormatTHB(c.Change), finance.Percent(c.ChangePercent))
	}
	row("Income", cmp.Income)
	row("Expenses", cmp.Expense)
	row("Net profit", cmp.NetProfit)
	for _, kc := range cmp.IncomeByType {
		row("  income "+kc.Key, kc.Change)
	}
	for _, kc := range cmp.ExpenseByCategory {
		row("  expense "+kc.Key, kc.Change)
	}
	_ = w.Flush()
}
