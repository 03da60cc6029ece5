package eastmoney

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// absentTokens are the values the source uses to report "no data"
var absentTokens = map[string]struct{}{
	"":   {},
	"-":  {},
	"--": {},
}

// NormalizeNumber converts a raw wire value into an exact decimal, or absent
// Numbers are converted from their textual form so no binary floating point rounding leaks in
func NormalizeNumber(raw any) (decimal.NullDecimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(v), nil
	case json.Number:
		return parseDecimal(v.String())
	case string:
		s := strings.TrimSpace(v)
		if _, ok := absentTokens[s]; ok {
			return decimal.NullDecimal{}, nil
		}
		return parseDecimal(s)
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(v)), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case uint64:
		return parseDecimal(strconv.FormatUint(v, 10))
	case float32:
		return parseFloat(float64(v), 32)
	case float64:
		return parseFloat(v, 64)
	default:
		return decimal.NullDecimal{}, &MalformedNumberError{Value: fmt.Sprint(v)}
	}
}

func parseFloat(v float64, bitSize int) (decimal.NullDecimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}, &MalformedNumberError{Value: strconv.FormatFloat(v, 'g', -1, bitSize)}
	}
	// Shortest representation that round-trips, e.g. 1.2345 stays "1.2345"
	return parseDecimal(strconv.FormatFloat(v, 'f', -1, bitSize))
}

func parseDecimal(s string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, &MalformedNumberError{Value: s}
	}
	return decimal.NewNullDecimal(d), nil
}
