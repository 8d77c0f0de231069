package risk

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"redflag/internal/domain/models"
)

const (
	// context window: 50 chars either side of the matched keyword,
	// display-truncated to 100 chars plus an ellipsis
	contextRadius   = 50
	contextMaxChars = 100

	// a single keyword repeated many times must not dominate the score
	frequencyCap = 3
)

// Scorer computes a risk assessment over a chat transcript. It holds only
// the immutable pattern configuration and the precompiled keyword regexes,
// so a single instance is safe for concurrent use.
type Scorer struct {
	config       Config
	keywordRegex map[string]*regexp.Regexp
	intensifiers []string
}

// NewScorer creates a scorer from the given pattern configuration
func NewScorer(cfg Config) *Scorer {
	intensifiers := make([]string, len(cfg.Intensifiers))
	for i, w := range cfg.Intensifiers {
		intensifiers[i] = strings.ToLower(w)
	}

	return &Scorer{
		config:       cfg,
		keywordRegex: compileKeywords(cfg),
		intensifiers: intensifiers,
	}
}

// Config returns the pattern configuration the scorer was built with
func (s *Scorer) Config() Config {
	return s.config
}

// Score analyzes a transcript and returns a risk assessment. It is a pure
// function of its inputs and the pattern configuration: it never fails, and
// empty input yields a minimal-risk assessment.
func (s *Scorer) Score(rawText string, messages []models.ChatMessage) models.RiskAssessment {
	lower := strings.ToLower(rawText)

	flags := []models.RedFlag{}
	keywords := []string{}
	seen := make(map[string]bool)
	var total float64

	for _, cat := range s.config.Categories {
		matched := 0

		for _, kw := range cat.Keywords {
			re, ok := s.keywordRegex[kw]
			if !ok {
				continue
			}

			locs := re.FindAllStringIndex(lower, -1)
			frequency := len(locs)
			if frequency == 0 {
				continue
			}
			matched++

			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}

			// context comes from the original-case text around the first hit;
			// match offsets are relative to the lowered text and must be
			// mapped back before slicing
			start, end := alignRange(rawText, locs[0][0], locs[0][1])
			window := contextWindow(rawText, start, end)
			severity := s.effectiveSeverity(cat.Severity, frequency, window)

			flags = append(flags, models.RedFlag{
				Category:       cat.Category,
				Severity:       severity,
				Message:        fmt.Sprintf("Detected %s pattern: %q", strings.ToLower(cat.Category), kw),
				Context:        truncateContext(window),
				MatchedKeyword: kw,
			})

			capped := frequency
			if capped > frequencyCap {
				capped = frequencyCap
			}
			total += float64(cat.Weight * capped)
		}

		// Breadth bonus: several distinct keywords from one category.
		// Only the most recently appended flag of the category is escalated,
		// so this must happen before the global sort below.
		if matched > 1 {
			last := &flags[len(flags)-1]
			last.Severity = last.Severity.Escalate()
			total += float64(cat.Weight) * 0.5
		}
	}

	if flag, bonus, ok := s.messageFrequencyFlag(messages); ok {
		flags = append(flags, flag)
		total += bonus
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}

	// stable: ties keep discovery order
	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.Rank() > flags[j].Severity.Rank()
	})

	return models.RiskAssessment{
		RiskScore:        score,
		RedFlags:         flags,
		KeywordsDetected: keywords,
		Summary:          summarize(score, flags, len(keywords)),
	}
}

// effectiveSeverity applies frequency and intensifier escalation to a
// category's base severity
func (s *Scorer) effectiveSeverity(base models.Severity, frequency int, window string) models.Severity {
	switch base {
	case models.SeverityCritical:
		return base
	case models.SeverityHigh:
		if frequency > 2 || s.hasIntensifier(window) {
			return models.SeverityCritical
		}
	case models.SeverityMedium:
		if frequency > 3 {
			return models.SeverityHigh
		}
	case models.SeverityLow:
		if frequency > 2 {
			return models.SeverityMedium
		}
	}
	return base
}

func (s *Scorer) hasIntensifier(window string) bool {
	lower := strings.ToLower(window)
	for _, w := range s.intensifiers {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// messageFrequencyFlag checks the behavioral signal: an unusually high
// average of messages per calendar day
func (s *Scorer) messageFrequencyFlag(messages []models.ChatMessage) (models.RedFlag, float64, bool) {
	if len(messages) == 0 {
		return models.RedFlag{}, 0, false
	}

	dates := make(map[string]struct{})
	for _, m := range messages {
		dates[m.Date] = struct{}{}
	}

	avg := float64(len(messages)) / float64(len(dates))
	if avg <= s.config.FrequencyThreshold {
		return models.RedFlag{}, 0, false
	}

	return models.RedFlag{
		Category: "Harassment",
		Severity: models.SeverityMedium,
		Message:  fmt.Sprintf("Excessive messaging detected: an average of %.1f messages per day", avg),
		Context:  fmt.Sprintf("%d messages across %d day(s)", len(messages), len(dates)),
	}, s.config.FrequencyBonus, true
}

// alignRange translates a byte range located in the lowered text into the
// matching byte range of the original text. Lowercasing maps runes one to
// one but may change their encoded length (Ⱥ is 2 bytes, ⱥ is 3), so the
// offsets are translated by walking both forms in lockstep.
func alignRange(raw string, start, end int) (int, int) {
	rawOff, lowOff := 0, 0
	rawStart := -1
	for rawOff < len(raw) {
		if lowOff >= start && rawStart < 0 {
			rawStart = rawOff
		}
		if lowOff >= end {
			return rawStart, rawOff
		}
		r, size := utf8.DecodeRuneInString(raw[rawOff:])
		rawOff += size
		lowOff += utf8.RuneLen(unicode.ToLower(r))
	}
	if rawStart < 0 {
		rawStart = len(raw)
	}
	return rawStart, len(raw)
}

// contextWindow slices the original-case text around a match, clamped to
// the text bounds
func contextWindow(text string, start, end int) string {
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}

func truncateContext(window string) string {
	if len(window) > contextMaxChars {
		return window[:contextMaxChars] + "..."
	}
	return window
}

// summarize renders the human-readable summary for one of the five
// score bands
func summarize(score int, flags []models.RedFlag, keywordCount int) string {
	var critical, high int
	for _, f := range flags {
		switch f.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
	}

	switch {
	case score >= 80:
		return fmt.Sprintf(
			"CRITICAL RISK: %d critical and %d high-severity red flags detected. %d concerning keywords found. Immediate attention recommended.",
			critical, high, keywordCount)
	case score >= 60:
		return fmt.Sprintf(
			"HIGH RISK: %d high-severity red flags detected. %d concerning keywords found. Review recommended.",
			high, keywordCount)
	case score >= 40:
		return fmt.Sprintf(
			"MODERATE RISK: %d red flags detected. %d concerning keywords found. Monitor situation.",
			len(flags), keywordCount)
	case score >= 20:
		return fmt.Sprintf(
			"LOW RISK: %d minor red flags detected. %d keywords found. Stay vigilant.",
			len(flags), keywordCount)
	default:
		return "MINIMAL RISK: No significant red flags detected. Chat appears relatively safe."
	}
}
