package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/listing"
)

type detailCmd struct {
	limit int
}

func (*detailCmd) Name() string     { return "detail" }
func (*detailCmd) Synopsis() string { return "show a fund and its stored NAV history" }
func (*detailCmd) Usage() string {
	return `detail [-limit <n>] <code>

  Prints the most recent stored NAV records of the fund, oldest first.
`
}

func (c *detailCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", listing.DefaultDetailLimit, "Number of records")
}

func (c *detailCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one fund code is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	detail, err := listing.NewListingService(a.fundRepo, a.navRepo).GetFundDetail(ctx, f.Arg(0), c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s %s (%s), registered %s\n\n",
		detail.Fund.Code, detail.Fund.Name, detail.Fund.FundType, detail.Fund.CreatedAt.Format(time.RFC3339))

	points := make([]domain.NavPoint, 0, len(detail.Navs))
	for _, rec := range detail.Navs {
		points = append(points, rec.NavPoint)
	}
	printPoints(points)
	return subcommands.ExitSuccess
}

// printPoints writes one row per point
func printPoints(points []domain.NavPoint) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAV\tACC NAV\tCHANGE%")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			domain.DateKey(p.NavDate),
			p.NAV.String(),
			optional(p.AccumulatedNAV.Decimal, p.AccumulatedNAV.Valid),
			optional(p.DailyChangePct.Decimal, p.DailyChangePct.Valid))
	}
	w.Flush()
	if len(points) == 0 {
		fmt.Println("no history")
	}
}
