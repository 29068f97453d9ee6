package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "fifo", cfg.LotMethod)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Scheduler.GetDebounce())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "valuation.toml")
	content := `
portfolio = "brokerage"
currency = "EUR"
lot_method = "hifo"

[storage]
driver = "sqlite"
path = "data/valuation.db"

[scheduler]
debounce = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("VALUATION_LOG_LEVEL", "debug")
	t.Setenv("VALUATION_PORTFOLIO", "ira")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ira", cfg.Portfolio, "env overrides the file")
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "hifo", cfg.LotMethod)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "data/valuation.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.GetDebounce())
	assert.Equal(t, "market", cfg.Market.Path, "unset values keep their default")
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "portfolio = "},
		{"driver", "[storage]\ndriver = \"mongo\""},
		{"lot method", "lot_method = \"average\""},
		{"currency", "currency = \"dollars\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "valuation.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSchedulerConfig_BadDebounce(t *testing.T) {
	c := SchedulerConfig{Debounce: "soon"}
	assert.Equal(t, time.Second, c.GetDebounce())
}
