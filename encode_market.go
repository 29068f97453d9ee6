package valuation

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

const attrOn = "on"
const marketDataFilesGlob = "[0-9][0-9][0-9][0-9].jsonl"
const assetsFile = "assets.jsonl"

// Market data is persisted in a folder, in a way that is still human-readable and git-friendly:
//
//	assets.jsonl  one {"asset":"AAPL","currency":"USD"} per line
//	2024.jsonl    one {"on":"2024-01-02","AAPL":182.5,"MSFT":370.87} per day
//
// Prices are read as exact decimals.

// jasset is an assets.jsonl line.
type jasset struct {
	Asset    string `json:"asset"`
	Currency string `json:"currency"`
}

// decodeAssets parses the asset definitions. filename is for error message only.
func (m *MarketData) decodeAssets(filename string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ja jasset
		if err := json.Unmarshal(line, &ja); err != nil {
			return fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
		if ja.Asset == "" {
			return fmt.Errorf("parse error %s:%v: missing the property \"asset\"", filename, i)
		}
		m.Declare(ja.Asset, ja.Currency)
	}
	return scanner.Err()
}

// fileLine structures a line from a collection of files as the persistence layer represent them.
type fileLine struct {
	filename string
	i        int
	txt      string
}

// loadLines read all lines from a set of files and return them in list of structured lines.
func loadLines(filenames ...string) ([]fileLine, error) {
	var list []fileLine
	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("cannot open %q for reading: %w", filename, err)
		}
		scanner := bufio.NewScanner(f)
		for i := 1; scanner.Scan(); i++ {
			list = append(list, fileLine{filename, i, scanner.Text()})
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: %w", filename, err)
		}
	}
	return list, nil
}

// decodeDailyPrices decodes a single line of a yearly price file.
func decodeDailyPrices(m *MarketData, l fileLine) error {
	if strings.TrimSpace(l.txt) == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(l.txt))
	dec.UseNumber()
	jobj := make(map[string]any)
	if err := dec.Decode(&jobj); err != nil {
		return fmt.Errorf("parse error %s:%v: not a correct json: %w", l.filename, l.i, err)
	}

	jvalue, ok := jobj[attrOn]
	if !ok {
		return fmt.Errorf("parse error %s:%v: missing the property %q with a date", l.filename, l.i, attrOn)
	}
	jstring, ok := jvalue.(string)
	if !ok {
		return fmt.Errorf("parse error %s:%v: property %q must be of type 'string'", l.filename, l.i, attrOn)
	}
	on, err := date.Parse(jstring)
	if err != nil {
		return fmt.Errorf("parse error %s:%v: property %q must be a valid date: %w", l.filename, l.i, attrOn, err)
	}

	for asset, price := range jobj {
		if asset == attrOn {
			continue
		}
		n, ok := price.(json.Number)
		if !ok {
			return fmt.Errorf("parse error %s:%v: property %q must be of type 'number'", l.filename, l.i, asset)
		}
		p, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("parse error %s:%v: property %q: %w", l.filename, l.i, asset, err)
		}
		m.Append(asset, on, M(p, ""))
	}
	return nil
}

// DecodeMarketData reads a market data folder. A missing folder is an empty market.
func DecodeMarketData(folder string) (*MarketData, error) {
	m := NewMarketData()

	definitions := filepath.Join(folder, assetsFile)
	f, err := os.Open(definitions)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("load error: cannot open asset definition file %q: %w", definitions, err)
	default:
		err = m.decodeAssets(definitions, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load error: cannot read asset definition file: %w", err)
		}
	}

	filenames, err := filepath.Glob(filepath.Join(folder, marketDataFilesGlob))
	if err != nil {
		return nil, fmt.Errorf("load error: cannot scan folder %q for market data files: %w", folder, err)
	}
	lines, err := loadLines(filenames...)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := decodeDailyPrices(m, line); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// encodeDailyPrices writes a single line of a yearly price file.
func encodeDailyPrices(w io.Writer, day date.Date, assets []string, prices []Money) error {
	var jw jsonObjectWriter
	jw.Append(attrOn, day.String())
	for i, asset := range assets {
		jw.Append(asset, prices[i].Decimal())
	}
	b, err := jw.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// EncodeMarketData writes market data into a folder: the asset definitions
// and one JSONL file per year. Yearly files that are no longer needed are deleted.
func EncodeMarketData(folder string, m *MarketData, logger *common.Logger) error {
	log := logger.OrSilent()
	decimal.MarshalJSONWithoutQuotes = true
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("persist error: cannot create folder %q: %w", folder, err)
	}

	assets := m.Assets()

	var defs bytes.Buffer
	for _, asset := range assets {
		b, err := json.Marshal(jasset{Asset: asset, Currency: m.Currency(asset)})
		if err != nil {
			return fmt.Errorf("persist error: cannot marshal asset %q: %w", asset, err)
		}
		defs.Write(append(b, '\n'))
	}
	if err := os.WriteFile(filepath.Join(folder, assetsFile), defs.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}

	// days gathers the prices per day, then per asset in alphabetical order.
	type row struct {
		assets []string
		prices []Money
	}
	days := make(map[date.Date]*row)
	for _, asset := range assets {
		for on, p := range m.Prices(asset) {
			r, ok := days[on]
			if !ok {
				r = new(row)
				days[on] = r
			}
			r.assets = append(r.assets, asset)
			r.prices = append(r.prices, p)
		}
	}
	sorted := make([]date.Date, 0, len(days))
	for on := range days {
		sorted = append(sorted, on)
	}
	slices.SortFunc(sorted, date.Date.Compare)

	files := make(map[string]*bytes.Buffer)
	for _, on := range sorted {
		name := filepath.Join(folder, fmt.Sprintf("%d.jsonl", on.Year()))
		buf, ok := files[name]
		if !ok {
			buf = new(bytes.Buffer)
			files[name] = buf
		}
		r := days[on]
		if err := encodeDailyPrices(buf, on, r.assets, r.prices); err != nil {
			return fmt.Errorf("persist error: %w", err)
		}
	}
	for name, buf := range files {
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("persist error: cannot write file %q: %w", name, err)
		}
		log.Debug().Str("file", name).Msg("market data file written")
	}

	existing, err := filepath.Glob(filepath.Join(folder, marketDataFilesGlob))
	if err != nil {
		return fmt.Errorf("persist error: cannot scan folder %q for market data files to be deleted: %w", folder, err)
	}
	for _, name := range existing {
		if _, ok := files[name]; ok {
			continue
		}
		if err := os.Remove(name); err != nil {
			return fmt.Errorf("persist error: cannot delete file %q: %w", name, err)
		}
		log.Debug().Str("file", name).Msg("market data file deleted")
	}
	return nil
}
