package risk

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"redflag/internal/domain/models"
)

// PatternCategory is one configured category of concerning keywords.
// The order of categories and of keywords within a category is significant:
// flags are discovered in configuration order.
type PatternCategory struct {
	Category string          `yaml:"category" json:"category"`
	Severity models.Severity `yaml:"severity" json:"severity"`
	Weight   int             `yaml:"weight" json:"weight"`
	Keywords []string        `yaml:"keywords" json:"keywords"`
}

// Config is the tunable surface of the scorer: the pattern table, the
// intensifier word list, and the message-frequency signal parameters.
type Config struct {
	Categories         []PatternCategory `yaml:"categories" json:"categories"`
	Intensifiers       []string          `yaml:"intensifiers" json:"intensifiers"`
	FrequencyThreshold float64           `yaml:"frequency_threshold" json:"frequency_threshold"`
	FrequencyBonus     float64           `yaml:"frequency_bonus" json:"frequency_bonus"`
}

// DefaultConfig returns the built-in pattern table
func DefaultConfig() Config {
	return Config{
		Categories: []PatternCategory{
			{
				Category: "Extortion",
				Severity: models.SeverityHigh,
				Weight:   15,
				Keywords: []string{
					"money", "send me", "pay", "transfer", "demand",
					"or else", "blackmail",
				},
			},
			{
				Category: "Threats",
				Severity: models.SeverityCritical,
				Weight:   20,
				Keywords: []string{
					"kill", "hurt", "destroy", "ruin", "police",
					"case", "file", "court", "jail",
				},
			},
			{
				Category: "Emotional Manipulation",
				Severity: models.SeverityMedium,
				Weight:   10,
				Keywords: []string{
					"your fault", "you made me", "if you loved me",
					"nobody will believe", "after everything", "ungrateful",
				},
			},
			{
				Category: "Isolation",
				Severity: models.SeverityHigh,
				Weight:   12,
				Keywords: []string{
					"don't talk to", "stop meeting", "not allowed",
					"permission", "stay away from", "cut off",
				},
			},
			{
				Category: "False Accusations",
				Severity: models.SeverityMedium,
				Weight:   10,
				Keywords: []string{
					"cheating", "characterless", "affair", "liar", "shameless",
				},
			},
			{
				Category: "Dowry Demands",
				Severity: models.SeverityCritical,
				Weight:   18,
				Keywords: []string{
					"dowry", "gold", "jewellery", "property", "cash",
					"your father should pay",
				},
			},
			{
				Category: "Intimidation",
				Severity: models.SeverityHigh,
				Weight:   12,
				Keywords: []string{
					"watch yourself", "you will regret", "warning",
					"last chance", "consequences",
				},
			},
			{
				Category: "Gaslighting",
				Severity: models.SeverityMedium,
				Weight:   10,
				Keywords: []string{
					"imagining", "crazy", "overreacting", "never happened",
					"making it up", "dramatic",
				},
			},
		},
		Intensifiers: []string{
			"must", "will", "definitely", "surely", "promise", "guarantee",
		},
		FrequencyThreshold: 50,
		FrequencyBonus:     10,
	}
}

// LoadConfig reads a pattern table from a YAML file. Missing fields fall
// back to the defaults so a file can override just the categories.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse pattern file: %w", err)
	}

	if len(loaded.Categories) > 0 {
		cfg.Categories = loaded.Categories
	}
	if len(loaded.Intensifiers) > 0 {
		cfg.Intensifiers = loaded.Intensifiers
	}
	if loaded.FrequencyThreshold > 0 {
		cfg.FrequencyThreshold = loaded.FrequencyThreshold
	}
	if loaded.FrequencyBonus > 0 {
		cfg.FrequencyBonus = loaded.FrequencyBonus
	}

	return cfg, nil
}

// Validate checks the pattern table for unusable entries
func (c Config) Validate() error {
	for _, cat := range c.Categories {
		if cat.Category == "" {
			return fmt.Errorf("pattern category with empty name")
		}
		if cat.Severity.Rank() == 0 {
			return fmt.Errorf("category %q has invalid severity %q", cat.Category, cat.Severity)
		}
		if cat.Weight <= 0 {
			return fmt.Errorf("category %q has non-positive weight %d", cat.Category, cat.Weight)
		}
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", cat.Category)
		}
	}
	return nil
}

// compileKeywords builds the whole-word regex cache for every configured
// keyword. Keywords are matched case-insensitively against the lowercased
// transcript, so patterns are compiled from the lowercased keyword.
func compileKeywords(cfg Config) map[string]*regexp.Regexp {
	cache := make(map[string]*regexp.Regexp)
	for _, cat := range cfg.Categories {
		for _, kw := range cat.Keywords {
			if _, ok := cache[kw]; ok {
				continue
			}
			expr := `\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`
			if compiled, err := regexp.Compile(expr); err == nil {
				cache[kw] = compiled
			}
		}
	}
	return cache
}
