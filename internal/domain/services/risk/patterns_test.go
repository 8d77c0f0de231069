package risk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redflag/internal/domain/models"
	"redflag/internal/domain/services/risk"
)

func TestDefaultConfig(t *testing.T) {
	cfg := risk.DefaultConfig()

	assert.Len(t, cfg.Categories, 8)
	assert.Equal(t, float64(50), cfg.FrequencyThreshold)
	assert.Equal(t, float64(10), cfg.FrequencyBonus)
	assert.NotEmpty(t, cfg.Intensifiers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_OverridesCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")

	content := `
categories:
  - category: Spam
    severity: low
    weight: 5
    keywords: ["buy now", "limited offer"]
frequency_threshold: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := risk.LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "Spam", cfg.Categories[0].Category)
	assert.Equal(t, models.SeverityLow, cfg.Categories[0].Severity)
	assert.Equal(t, float64(25), cfg.FrequencyThreshold)
	// untouched fields keep their defaults
	assert.Equal(t, float64(10), cfg.FrequencyBonus)
	assert.NotEmpty(t, cfg.Intensifiers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := risk.LoadConfig("/nonexistent/patterns.yaml")

	assert.Error(t, err)
	// defaults are still usable on error
	assert.Len(t, cfg.Categories, 8)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*risk.Config)
		wantErr bool
	}{
		{"valid", func(c *risk.Config) {}, false},
		{"empty name", func(c *risk.Config) { c.Categories[0].Category = "" }, true},
		{"bad severity", func(c *risk.Config) { c.Categories[0].Severity = "extreme" }, true},
		{"zero weight", func(c *risk.Config) { c.Categories[0].Weight = 0 }, true},
		{"no keywords", func(c *risk.Config) { c.Categories[0].Keywords = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := risk.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScorerUsesConfiguredPatterns(t *testing.T) {
	cfg := risk.Config{
		Categories: []risk.PatternCategory{
			{
				Category: "Spam",
				Severity: models.SeverityLow,
				Weight:   5,
				Keywords: []string{"limited offer"},
			},
		},
		FrequencyThreshold: 50,
		FrequencyBonus:     10,
	}
	scorer := risk.NewScorer(cfg)

	result := scorer.Score("this limited offer expires today", nil)

	require.Len(t, result.RedFlags, 1)
	assert.Equal(t, "Spam", result.RedFlags[0].Category)
	assert.Equal(t, 5, result.RiskScore)

	// the default table is not in play
	none := scorer.Score("send me money", nil)
	assert.Empty(t, none.RedFlags)
}
