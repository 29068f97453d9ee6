// Package pricefeed extracts daily prices from arbitrary JSON documents, such
// as the responses of market data APIs saved to disk.
//
// A Feed locates the rows of a document with a jsonpath expression, then the
// date and the price inside each row with two more expressions:
//
//	{"data": [{"date": "2024-01-02", "close": 185.64}, ...]}
//	Feed{Rows: "$.data[*]", Date: "$.date", Price: "$.close"}
//
// Numbers are read as exact decimals.
package pricefeed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// Date layouts for epoch timestamps.
const (
	Unix      = "unix"   // seconds since epoch
	UnixMilli = "unixms" // milliseconds since epoch
)

// Feed describes where prices are in a JSON document.
type Feed struct {
	Asset      string
	Currency   string
	Rows       string // path to the rows, defaults to "$[*]"
	Date       string // path to the date, relative to a row
	Price      string // path to the price, relative to a row
	DateLayout string // time layout of the date, Unix, UnixMilli, defaults to date.DateFormat
	Logger     *common.Logger
}

// Decode reads a JSON document and extracts its prices.
func (f Feed) Decode(r io.Reader) ([]valuation.PricePoint, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: not a correct json: %w", f.Asset, err)
	}
	return f.Extract(doc)
}

// Extract returns the prices found in a decoded JSON document. Rows with a
// null date or price are skipped.
func (f Feed) Extract(doc any) ([]valuation.PricePoint, error) {
	log := f.Logger.OrSilent()
	rowsPath := f.Rows
	if rowsPath == "" {
		rowsPath = "$[*]"
	}
	jrows, err := jsonpath.Get(rowsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: rows %q: %w", f.Asset, rowsPath, err)
	}
	rows, ok := jrows.([]any)
	if !ok {
		rows = []any{jrows}
	}

	points := make([]valuation.PricePoint, 0, len(rows))
	for i, row := range rows {
		jdate, err := first(jsonpath.Get(f.Date, row))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: date %q: %w", f.Asset, i, f.Date, err)
		}
		jprice, err := first(jsonpath.Get(f.Price, row))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: price %q: %w", f.Asset, i, f.Price, err)
		}
		if jdate == nil || jprice == nil {
			log.Debug().Str("asset", f.Asset).Int("row", i).Msg("row without date or price skipped")
			continue
		}
		on, err := f.parseDate(jdate)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", f.Asset, i, err)
		}
		price, err := parseDecimal(jprice)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", f.Asset, i, err)
		}
		points = append(points, valuation.PricePoint{Date: on, Price: valuation.M(price, f.Currency)})
	}
	return points, nil
}

// Import decodes a JSON document and appends its prices to m.
// It returns the number of prices appended.
func (f Feed) Import(r io.Reader, m *valuation.MarketData) (int, error) {
	points, err := f.Decode(r)
	if err != nil {
		return 0, err
	}
	if f.Currency != "" {
		m.Declare(f.Asset, f.Currency)
	}
	for _, p := range points {
		m.Append(f.Asset, p.Date, p.Price)
	}
	f.Logger.OrSilent().Info().Str("asset", f.Asset).Int("prices", len(points)).Msg("prices imported")
	return len(points), nil
}

// first unwraps single answers: jsonpath is never clear about whether it
// returns a list of 1 answer, or a single answer.
func first(v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	}
	return v, nil
}

func (f Feed) parseDate(v any) (date.Date, error) {
	switch f.DateLayout {
	case Unix, UnixMilli:
		n, err := parseDecimal(v)
		if err != nil {
			return date.Date{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		if f.DateLayout == UnixMilli {
			return date.FromTime(time.UnixMilli(n.IntPart()).UTC()), nil
		}
		return date.FromTime(time.Unix(n.IntPart(), 0).UTC()), nil
	}
	s, ok := v.(string)
	if !ok {
		return date.Date{}, fmt.Errorf("date must be a string, got %v", v)
	}
	layout := f.DateLayout
	if layout == "" {
		layout = date.DateFormat
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return date.FromTime(t), nil
}

// parseDecimal reads a number, also when some APIs return it as a string
// with a decimal comma.
func parseDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
