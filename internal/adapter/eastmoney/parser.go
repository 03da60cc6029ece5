package eastmoney

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// callbackPattern matches "identifier(<document>)" with an optional trailing semicolon
var callbackPattern = regexp.MustCompile(`(?s)^[A-Za-z_$][\w$.]*\s*\((.*)\)\s*;?$`)

// HistoryPage is one decoded page of the lsjz endpoint
type HistoryPage struct {
	Points     []domain.NavPoint
	TotalCount int
	// Entries counts the dated entries on the page, including any dropped for a missing nav
	Entries int
}

// Parser decodes lsjz response bodies.
type Parser struct {
	// SkipMissingNAV drops entries whose DWJZ is absent or malformed
	// instead of recording a zero nav.
	SkipMissingNAV bool
}

// ParseHistoryPage decodes a page with the default policy.
func ParseHistoryPage(body []byte) (*HistoryPage, error) {
	return Parser{}.Parse(body)
}

// Parse decodes one response body into nav points, preserving entry order.
func (p Parser) Parse(body []byte) (*HistoryPage, error) {
	document, err := unwrapDocument(body)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(document))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, &ResponseFormatError{Reason: fmt.Sprintf("invalid json: %v", err), Snippet: snippet(body)}
	}

	page := &HistoryPage{TotalCount: totalCount(payload["TotalCount"])}

	data, _ := payload["Data"].(map[string]any)
	entries, _ := data["LSJZList"].([]any)

	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		dateText, _ := entry["FSRQ"].(string)
		if dateText == "" {
			continue
		}
		navDate, err := domain.ParseDate(dateText)
		if err != nil {
			return nil, &ResponseFormatError{Reason: fmt.Sprintf("invalid FSRQ %q", dateText), Snippet: snippet(body)}
		}
		page.Entries++

		nav, err := NormalizeNumber(entry["DWJZ"])
		if err != nil || !nav.Valid {
			if p.SkipMissingNAV {
				continue
			}
			nav = decimal.NewNullDecimal(decimal.Zero)
		}

		page.Points = append(page.Points, domain.NavPoint{
			NavDate:        navDate,
			NAV:            nav.Decimal,
			AccumulatedNAV: optionalNumber(entry["LJJZ"]),
			DailyChangePct: optionalNumber(entry["JZZZL"]),
		})
	}

	return page, nil
}

// unwrapDocument returns the JSON document inside a bare or callback-wrapped body
func unwrapDocument(body []byte) ([]byte, error) {
	text := bytes.TrimSpace(body)
	if len(text) == 0 {
		return nil, &ResponseFormatError{Reason: "empty body", Snippet: ""}
	}
	if text[0] == '{' {
		return text, nil
	}
	m := callbackPattern.FindSubmatch(text)
	if m == nil {
		return nil, &ResponseFormatError{Reason: "not a JSON document or callback wrapper", Snippet: snippet(body)}
	}
	return m[1], nil
}

func optionalNumber(raw any) decimal.NullDecimal {
	v, err := NormalizeNumber(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return v
}

func totalCount(raw any) int {
	v, err := NormalizeNumber(raw)
	if err != nil || !v.Valid {
		return 0
	}
	return int(v.Decimal.IntPart())
}
