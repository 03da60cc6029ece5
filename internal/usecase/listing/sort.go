package listing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// compareFunc orders two items ascending; it returns <0, 0 or >0
type compareFunc func(a, b *domain.FundListItem) int

// nullableMetric extracts an optional sort key
type nullableMetric func(item *domain.FundListItem) decimal.NullDecimal

var comparators = map[domain.SortField]compareFunc{
	domain.SortByCode: func(a, b *domain.FundListItem) int { return strings.Compare(a.Code, b.Code) },
	domain.SortByName: func(a, b *domain.FundListItem) int { return strings.Compare(a.Name, b.Name) },
}

var metrics = map[domain.SortField]nullableMetric{
	domain.SortByNAV:         func(item *domain.FundListItem) decimal.NullDecimal { return item.NAV },
	domain.SortByDailyChange: func(item *domain.FundListItem) decimal.NullDecimal { return item.DailyChangePct },
}

// sortItems orders items in place by field and direction
// Items with an absent metric always go last whatever the direction; ties keep their input order
func sortItems(items []*domain.FundListItem, field domain.SortField, order domain.SortOrder) {
	if field == domain.SortNone {
		return
	}

	desc := order != domain.SortAsc

	if metric, ok := metrics[field]; ok {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := metric(items[i]), metric(items[j])
			switch {
			case !a.Valid:
				return false
			case !b.Valid:
				return true
			case desc:
				return a.Decimal.GreaterThan(b.Decimal)
			default:
				return a.Decimal.LessThan(b.Decimal)
			}
		})
		return
	}

	cmp := comparators[field]
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
