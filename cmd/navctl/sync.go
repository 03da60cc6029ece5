package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/navsync"
)

type syncCmd struct {
	days int
	code string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch recent NAV history and store what is new" }
func (*syncCmd) Usage() string {
	return `sync [-days <n>] [-code <code>]

  Fetches the last n calendar days of NAV history for every registered fund,
  or only for -code, and inserts the dates not stored yet.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "Look-back window in days (defaults to sync.days from the config)")
	f.StringVar(&c.code, "code", "", "Sync only this fund")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	days := c.days
	if days == 0 {
		days = a.config.Sync.Days
	}

	var report *navsync.SyncReport
	if c.code != "" {
		report, err = a.syncService().SyncFund(ctx, c.code, days)
	} else {
		report, err = a.syncService().SyncAll(ctx, days)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if report.Status == navsync.StatusNoop {
		fmt.Println(report.Message)
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tFETCHED\tINSERTED\tERROR")
	for _, r := range report.Funds {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.Code, r.Fetched, r.Inserted, r.Error)
	}
	w.Flush()

	fmt.Printf("\n%s..%s %s: %d inserted, %d fetched, %d failed\n",
		domain.DateKey(report.Start), domain.DateKey(report.End), report.Status,
		report.TotalInserted, report.TotalFetched, report.Failed)

	if report.Status == navsync.StatusFailed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
