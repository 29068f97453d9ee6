package valuation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/valuation/date"
)

func TestMarketData(t *testing.T) {
	m := NewMarketData()
	m.Declare("AAPL", "USD")
	m.Append("AAPL", date.MustParse("2024-01-03"), M("185.5", ""))
	m.Append("AAPL", date.MustParse("2024-01-02"), M(180, ""))
	m.Append("MC.PA", date.MustParse("2024-01-02"), M(700, "EUR"))

	if got, ok := m.Get("AAPL", date.MustParse("2024-01-03")); !ok || !got.Equal(USD("185.5")) {
		t.Errorf("Get() = %v, %v, want 185.5 USD", got, ok)
	}
	if _, ok := m.Get("AAPL", date.MustParse("2024-01-04")); ok {
		t.Errorf("Get() on a day without price should fail")
	}
	if !m.Has("MC.PA") || m.Has("MSFT") {
		t.Errorf("Has() is wrong")
	}

	points, err := m.PriceSeries(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].Date != date.MustParse("2024-01-02") {
		t.Errorf("PriceSeries() = %v, want 2 chronological points", points)
	}

	q, err := NewLookup(m).PriceAt(context.Background(), "AAPL", date.MustParse("2024-01-05"))
	if err != nil || !q.Price.Equal(USD("185.5")) || q.Match != Before {
		t.Errorf("PriceAt() = %+v, %v", q, err)
	}
}

func TestMarketData_Folder(t *testing.T) {
	dir := t.TempDir()
	m := NewMarketData()
	m.Declare("AAPL", "USD")
	m.Declare("MC.PA", "EUR")
	m.Append("AAPL", date.MustParse("2023-12-29"), M("192.53", ""))
	m.Append("AAPL", date.MustParse("2024-01-02"), M("185.64", ""))
	m.Append("MC.PA", date.MustParse("2024-01-02"), M("733.7", ""))

	// a stale yearly file is removed.
	if err := os.WriteFile(filepath.Join(dir, "2019.jsonl"), []byte(`{"on":"2019-01-02","AAPL":39.48}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EncodeMarketData(dir, m, nil); err != nil {
		t.Fatalf("EncodeMarketData() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2019.jsonl")); !os.IsNotExist(err) {
		t.Errorf("2019.jsonl was not deleted")
	}
	b, err := os.ReadFile(filepath.Join(dir, "2024.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(string(b)), `{"on":"2024-01-02","AAPL":185.64,"MC.PA":733.7}`; got != want {
		t.Errorf("2024.jsonl:\n got %s\nwant %s", got, want)
	}

	decoded, err := DecodeMarketData(dir)
	if err != nil {
		t.Fatalf("DecodeMarketData() error = %v", err)
	}
	if got, ok := decoded.Get("MC.PA", date.MustParse("2024-01-02")); !ok || !got.Equal(M("733.7", "EUR")) {
		t.Errorf("Get(MC.PA) = %v, %v, want 733.7 EUR", got, ok)
	}
	if got, ok := decoded.Get("AAPL", date.MustParse("2023-12-29")); !ok || !got.Equal(USD("192.53")) {
		t.Errorf("Get(AAPL) = %v, %v, want 192.53 USD", got, ok)
	}
}

func TestDecodeMarketData_Errors(t *testing.T) {
	tests := []struct {
		name, content string
	}{
		{"no date", `{"AAPL":1}`},
		{"bad date", `{"on":"2024-13-01","AAPL":1}`},
		{"string price", `{"on":"2024-01-02","AAPL":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "2024.jsonl"), []byte(tt.content+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := DecodeMarketData(dir); err == nil {
				t.Errorf("DecodeMarketData() should fail on %s", tt.content)
			}
		})
	}

	m, err := DecodeMarketData(filepath.Join(t.TempDir(), "missing"))
	if err != nil || len(m.Assets()) != 0 {
		t.Errorf("DecodeMarketData(missing) = %v, %v, want an empty market", m.Assets(), err)
	}
}
