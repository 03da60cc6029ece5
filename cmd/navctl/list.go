package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/listing"
)

type listCmd struct {
	skip     int
	limit    int
	fundType string
	search   string
	sortBy   string
	order    string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list funds with their latest NAV and daily change" }
func (*listCmd) Usage() string {
	return `list [-skip <n>] [-limit <n>] [-type <type>] [-search <text>] [-sort nav|daily_change_pct|code|name] [-order asc|desc]

  Sorting applies to the returned page only. Funds without history sort last.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.skip, "skip", 0, "Number of funds to skip")
	f.IntVar(&c.limit, "limit", listing.DefaultLimit, "Page size")
	f.StringVar(&c.fundType, "type", "", "Only funds of this type")
	f.StringVar(&c.search, "search", "", "Case-sensitive substring of code or name")
	f.StringVar(&c.sortBy, "sort", "", "Sort field, store order when empty")
	f.StringVar(&c.order, "order", "desc", "Sort direction")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sortBy, err := domain.ParseSortField(c.sortBy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	order, err := domain.ParseSortOrder(c.order)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := listing.NewListingService(a.fundRepo, a.navRepo).ListFunds(ctx, listing.ListQuery{
		Skip:      c.skip,
		Limit:     c.limit,
		FundType:  c.fundType,
		Search:    c.search,
		SortBy:    sortBy,
		SortOrder: order,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tTYPE\tNAV\tDATE\tCHANGE%")
	for _, item := range result.Items {
		navDate := "-"
		if item.NavDate != nil {
			navDate = domain.DateKey(*item.NavDate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Code, item.Name, item.FundType,
			optional(item.NAV.Decimal, item.NAV.Valid),
			navDate,
			optional(item.DailyChangePct.Decimal, item.DailyChangePct.Valid))
	}
	w.Flush()

	fmt.Printf("\n%d of %d funds\n", len(result.Items), result.Total)
	return subcommands.ExitSuccess
}
