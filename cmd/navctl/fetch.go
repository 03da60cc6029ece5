package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/caiyueliang/fundnav-backend/internal/adapter/eastmoney"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

type fetchCmd struct {
	days int
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch NAV history from the source without storing it" }
func (*fetchCmd) Usage() string {
	return `fetch [-days <n>] <code>

  Downloads the last n calendar days of history for one fund code and prints it.
  The store is not touched, so the fund does not need to be registered.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "Look-back window in days")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one fund code is required.")
		return subcommands.ExitUsageError
	}
	if c.days < 1 {
		fmt.Fprintln(os.Stderr, "Error: -days must be positive.")
		return subcommands.ExitUsageError
	}

	config, logger, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	client := eastmoney.NewClientFromConfig(config.Source, logger.Named("eastmoney"))

	today := time.Now().In(config.Sync.GetLocation())
	end := domain.NewDate(today.Year(), today.Month(), today.Day())
	start := end.AddDate(0, 0, -c.days)

	points, err := client.FetchHistory(ctx, f.Arg(0), start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s %s..%s: %d points\n\n", f.Arg(0), domain.DateKey(start), domain.DateKey(end), len(points))
	printPoints(points)
	return subcommands.ExitSuccess
}
