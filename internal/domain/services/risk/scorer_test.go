package risk_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redflag/internal/domain/models"
	"redflag/internal/domain/services/risk"
)

func newScorer(t *testing.T) *risk.Scorer {
	t.Helper()
	return risk.NewScorer(risk.DefaultConfig())
}

func TestScore_EmptyInput(t *testing.T) {
	scorer := newScorer(t)

	result := scorer.Score("", nil)

	assert.Equal(t, 0, result.RiskScore)
	assert.Empty(t, result.RedFlags)
	assert.NotNil(t, result.RedFlags)
	assert.Empty(t, result.KeywordsDetected)
	assert.NotNil(t, result.KeywordsDetected)
	assert.Equal(t,
		"MINIMAL RISK: No significant red flags detected. Chat appears relatively safe.",
		result.Summary)
}

func TestScore_BoundedScore(t *testing.T) {
	scorer := newScorer(t)

	inputs := []string{
		"",
		"hello, how was your day?",
		"send me money or I will file a police case",
		strings.Repeat("kill hurt destroy ruin police case file court jail dowry gold cash ", 50),
	}

	for _, text := range inputs {
		result := scorer.Score(text, nil)
		assert.GreaterOrEqual(t, result.RiskScore, 0, "input: %q", text)
		assert.LessOrEqual(t, result.RiskScore, 100, "input: %q", text)
	}
}

func TestScore_ExtortionAndThreatScenario(t *testing.T) {
	scorer := newScorer(t)

	result := scorer.Score("send me money or I will file a police case", nil)

	require.NotEmpty(t, result.RedFlags)
	assert.NotZero(t, result.RiskScore)

	categories := make(map[string]bool)
	for _, f := range result.RedFlags {
		categories[f.Category] = true
	}
	assert.True(t, categories["Extortion"])
	assert.True(t, categories["Threats"])

	assert.Contains(t, result.KeywordsDetected, "money")
	assert.Contains(t, result.KeywordsDetected, "send me")
	assert.Contains(t, result.KeywordsDetected, "police")
	assert.Contains(t, result.KeywordsDetected, "case")
	assert.Contains(t, result.KeywordsDetected, "file")

	// 2 extortion keywords (15+15, +7.5 breadth) and 3 threat keywords
	// (20*3, +10 breadth) exceed the cap
	assert.Equal(t, 100, result.RiskScore)
	assert.True(t, strings.HasPrefix(result.Summary, "CRITICAL RISK:"), result.Summary)
}

func TestScore_FrequencyCappedAtThree(t *testing.T) {
	scorer := newScorer(t)

	result := scorer.Score("money money money money money", nil)

	require.Len(t, result.RedFlags, 1)
	// weight 15 * capped frequency 3, no breadth bonus for one keyword
	assert.Equal(t, 45, result.RiskScore)
	// high base severity escalates to critical once frequency exceeds 2
	assert.Equal(t, models.SeverityCritical, result.RedFlags[0].Severity)
	assert.Equal(t, "money", result.RedFlags[0].MatchedKeyword)
	assert.Equal(t, []string{"money"}, result.KeywordsDetected)
}

func TestScore_WholeWordMatching(t *testing.T) {
	scorer := newScorer(t)

	// "cashew" and "category" must not match "cash" or "case"
	result := scorer.Score("I bought cashew nuts for every category of guest", nil)

	assert.Equal(t, 0, result.RiskScore)
	assert.Empty(t, result.RedFlags)
}

func TestScore_CaseInsensitive(t *testing.T) {
	scorer := newScorer(t)

	lower := scorer.Score("send me money now", nil)
	upper := scorer.Score("SEND ME MONEY NOW", nil)

	assert.Equal(t, lower.RiskScore, upper.RiskScore)
	assert.Len(t, upper.RedFlags, len(lower.RedFlags))
}

func TestScore_FlagsSortedBySeverity(t *testing.T) {
	scorer := newScorer(t)

	text := "you are imagining things, you are so dramatic. pay the dowry or I will kill you. don't talk to your sister."
	result := scorer.Score(text, nil)

	require.NotEmpty(t, result.RedFlags)
	for i := 1; i < len(result.RedFlags); i++ {
		assert.GreaterOrEqual(t,
			result.RedFlags[i-1].Severity.Rank(),
			result.RedFlags[i].Severity.Rank(),
			"flags must be sorted by descending severity rank")
	}
}

func TestScore_EveryKeywordHasAFlag(t *testing.T) {
	scorer := newScorer(t)

	text := "pay the dowry in gold and cash or else I will file a court case, you shameless liar"
	result := scorer.Score(text, nil)

	require.NotEmpty(t, result.KeywordsDetected)
	for _, kw := range result.KeywordsDetected {
		found := false
		for _, f := range result.RedFlags {
			if f.MatchedKeyword == kw {
				found = true
				break
			}
		}
		assert.True(t, found, "keyword %q has no corresponding flag", kw)
	}
}

func TestScore_KeywordsDeduplicated(t *testing.T) {
	scorer := newScorer(t)

	result := scorer.Score("money today, money tomorrow, money forever", nil)

	assert.Equal(t, []string{"money"}, result.KeywordsDetected)
}

func TestScore_MessageFrequency(t *testing.T) {
	scorer := newScorer(t)

	messages := make([]models.ChatMessage, 200)
	for i := range messages {
		messages[i] = models.ChatMessage{
			Date:   "13/05/2023",
			Sender: "Rahul",
			Text:   fmt.Sprintf("message %d", i),
		}
	}

	result := scorer.Score("", messages)

	require.Len(t, result.RedFlags, 1)
	flag := result.RedFlags[0]
	assert.Equal(t, "Harassment", flag.Category)
	assert.Equal(t, models.SeverityMedium, flag.Severity)
	assert.Contains(t, flag.Message, "200.0")
	// flat frequency bonus only
	assert.Equal(t, 10, result.RiskScore)
}

func TestScore_MessageFrequencyBelowThreshold(t *testing.T) {
	scorer := newScorer(t)

	// 100 messages over 3 days is well under 50/day
	messages := make([]models.ChatMessage, 100)
	dates := []string{"13/05/2023", "14/05/2023", "15/05/2023"}
	for i := range messages {
		messages[i] = models.ChatMessage{Date: dates[i%3], Sender: "a", Text: "hi"}
	}

	result := scorer.Score("", messages)

	assert.Equal(t, 0, result.RiskScore)
	assert.Empty(t, result.RedFlags)
}

func TestScore_ContextWindow(t *testing.T) {
	scorer := newScorer(t)

	padding := strings.Repeat("a", 80)
	text := padding + " money " + padding
	result := scorer.Score(text, nil)

	require.Len(t, result.RedFlags, 1)
	ctx := result.RedFlags[0].Context
	assert.Contains(t, ctx, "money")
	assert.LessOrEqual(t, len(ctx), 103)
	assert.True(t, strings.HasSuffix(ctx, "..."))
}

func TestScore_ContextPreservesOriginalCase(t *testing.T) {
	scorer := newScorer(t)

	result := scorer.Score("Send Me MONEY right away", nil)

	require.NotEmpty(t, result.RedFlags)
	found := false
	for _, f := range result.RedFlags {
		if strings.Contains(f.Context, "MONEY") {
			found = true
		}
	}
	assert.True(t, found, "context should come from the original-case text")
}

func TestScore_LengthChangingCaseMappings(t *testing.T) {
	scorer := newScorer(t)

	// lowercasing changes the encoded length of both pads: Ⱥ grows from
	// 2 to 3 bytes, İ shrinks from 2 to 1, so lowered-text match offsets
	// drift away from the original text on either side
	for _, pad := range []string{"Ⱥ", "İ"} {
		text := strings.Repeat(pad, 200) + " money"

		var result models.RiskAssessment
		require.NotPanics(t, func() { result = scorer.Score(text, nil) }, "pad %q", pad)

		require.Len(t, result.RedFlags, 1, "pad %q", pad)
		assert.Equal(t, 15, result.RiskScore, "pad %q", pad)
		assert.Contains(t, result.RedFlags[0].Context, "money", "pad %q", pad)
		assert.Contains(t, result.RedFlags[0].Context, pad, "pad %q", pad)
	}
}

func TestScore_MultibyteContextTruncation(t *testing.T) {
	scorer := newScorer(t)

	padding := strings.Repeat("é", 80)
	result := scorer.Score(padding+" money "+padding, nil)

	require.Len(t, result.RedFlags, 1)
	ctx := result.RedFlags[0].Context
	assert.Contains(t, ctx, "money")
	assert.LessOrEqual(t, len(ctx), 103)
	assert.True(t, strings.HasSuffix(ctx, "..."))
}

func TestScore_BreadthBonusEscalatesLastFlag(t *testing.T) {
	// a category with no intensifiers in play, so escalation can only come
	// from the breadth rule
	cfg := risk.Config{
		Categories: []risk.PatternCategory{
			{
				Category: "Gaslighting",
				Severity: models.SeverityMedium,
				Weight:   10,
				Keywords: []string{"imagining", "dramatic"},
			},
		},
		FrequencyThreshold: 50,
		FrequencyBonus:     10,
	}
	scorer := risk.NewScorer(cfg)

	result := scorer.Score("stop imagining things, you are dramatic", nil)

	require.Len(t, result.RedFlags, 2)
	// 10 + 10 + 10*0.5 = 25
	assert.Equal(t, 25, result.RiskScore)

	var escalated, unchanged int
	for _, f := range result.RedFlags {
		switch f.Severity {
		case models.SeverityHigh:
			escalated++
			assert.Equal(t, "dramatic", f.MatchedKeyword, "only the last-appended flag escalates")
		case models.SeverityMedium:
			unchanged++
		}
	}
	assert.Equal(t, 1, escalated)
	assert.Equal(t, 1, unchanged)
	// after the global sort the escalated flag leads
	assert.Equal(t, models.SeverityHigh, result.RedFlags[0].Severity)
}

func TestScore_MediumEscalatesOnHighFrequency(t *testing.T) {
	cfg := risk.Config{
		Categories: []risk.PatternCategory{
			{
				Category: "Gaslighting",
				Severity: models.SeverityMedium,
				Weight:   10,
				Keywords: []string{"crazy"},
			},
		},
		FrequencyThreshold: 50,
		FrequencyBonus:     10,
	}
	scorer := risk.NewScorer(cfg)

	result := scorer.Score("crazy crazy crazy crazy", nil)

	require.Len(t, result.RedFlags, 1)
	assert.Equal(t, models.SeverityHigh, result.RedFlags[0].Severity)
	// weight still capped at frequency 3
	assert.Equal(t, 30, result.RiskScore)
}

func TestScore_Idempotent(t *testing.T) {
	scorer := newScorer(t)

	text := "pay the dowry or I will file a police case against your family"
	messages := []models.ChatMessage{
		{Date: "13/05/2023", Sender: "x", Text: "pay up"},
		{Date: "14/05/2023", Sender: "x", Text: "last chance"},
	}

	first := scorer.Score(text, messages)
	second := scorer.Score(text, messages)

	assert.Equal(t, first, second)
}

func TestScore_SummaryBands(t *testing.T) {
	scorer := newScorer(t)

	tests := []struct {
		name   string
		text   string
		prefix string
	}{
		{"minimal", "good morning, see you at lunch", "MINIMAL RISK:"},
		{"critical", "send me money or I will file a police case", "CRITICAL RISK:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.text, nil)
			assert.True(t, strings.HasPrefix(result.Summary, tt.prefix),
				"score=%d summary=%q", result.RiskScore, result.Summary)
		})
	}
}
