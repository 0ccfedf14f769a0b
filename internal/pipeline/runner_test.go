package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChat returns per-stage responses and records the prompts it saw
type scriptedChat struct {
	responses map[string]string
	failOn    string
	failWith  error

	userPrompts []string
}

func (c *scriptedChat) Complete(ctx context.Context, system, user string) (string, error) {
	c.userPrompts = append(c.userPrompts, user)

	for _, st := range stages {
		if st.system == system {
			if c.failOn == st.name {
				return "", c.failWith
			}
			return c.responses[st.name], nil
		}
	}
	return "", fmt.Errorf("unknown system prompt")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Analyze(t *testing.T) {
	chat := &scriptedChat{responses: map[string]string{
		stageVerification: "VERDICT: Confirmed Financial Document\n- Entity: Acme Corp\n- Document Type: Annual Report\n- Reporting Period: FY 2025",
		stageAnalysis:     "Revenue grew 12%.",
		stageInvestment:   "Bull case: margin expansion.",
		stageRisk:         "High: customer concentration.",
		stageMarket:       "Sector tailwinds persist.",
	}}

	runner := NewRunner(chat, discardLogger())
	report, err := runner.Analyze(context.Background(), "document body", "How did revenue develop?")

	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", report.AnalysisOutput)
	assert.Equal(t, "Bull case: margin expansion.", report.InvestmentOutput)
	assert.Equal(t, "High: customer concentration.", report.RiskOutput)
	assert.Equal(t, "Sector tailwinds persist.", report.MarketOutput)

	// Verification metadata is lifted into dedicated fields
	assert.Equal(t, "Acme Corp", report.EntityName)
	assert.Equal(t, "Annual Report", report.DocumentType)
	assert.Equal(t, "FY 2025", report.ReportingPeriod)

	// Combined report carries every section in pipeline order
	assert.Contains(t, report.FullOutput, "## DOCUMENT VERIFICATION")
	assert.Contains(t, report.FullOutput, "## FINANCIAL ANALYSIS")
	assert.Contains(t, report.FullOutput, "## INVESTMENT INSIGHTS")
	assert.Contains(t, report.FullOutput, "## RISK ASSESSMENT")
	assert.Contains(t, report.FullOutput, "## MARKET INTELLIGENCE")
	assert.Less(t,
		indexOf(report.FullOutput, "DOCUMENT VERIFICATION"),
		indexOf(report.FullOutput, "MARKET INTELLIGENCE"),
	)

	// All five stages ran, each seeing the document and the query
	require.Len(t, chat.userPrompts, len(stages))
	for _, prompt := range chat.userPrompts {
		assert.Contains(t, prompt, "document body")
		assert.Contains(t, prompt, "How did revenue develop?")
	}

	// Later stages see earlier outputs
	assert.Contains(t, chat.userPrompts[len(chat.userPrompts)-1], "Revenue grew 12%.")
	assert.NotContains(t, chat.userPrompts[0], "Revenue grew 12%.")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestRunner_AnalyzeEmptyDocument(t *testing.T) {
	runner := NewRunner(&scriptedChat{}, discardLogger())

	report, err := runner.Analyze(context.Background(), "   \n ", "query")

	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.Nil(t, report)
}

func TestRunner_AnalyzeStageFailure(t *testing.T) {
	chat := &scriptedChat{
		responses: map[string]string{stageVerification: "ok"},
		failOn:    stageAnalysis,
		failWith:  fmt.Errorf("%w: provider returned status 429", ErrRateLimited),
	}

	runner := NewRunner(chat, discardLogger())
	report, err := runner.Analyze(context.Background(), "doc", "query")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "stage analysis failed")
	// Transient classification survives the stage wrapping
	assert.True(t, IsTransient(err))
}

func TestParseVerification(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantEntity string
		wantType   string
		wantPeriod string
	}{
		{
			name:       "bulleted labels",
			output:     "VERDICT: Confirmed\n- Entity: Acme Corp\n- Document Type: 10-K\n- Reporting Period: FY 2025",
			wantEntity: "Acme Corp",
			wantType:   "10-K",
			wantPeriod: "FY 2025",
		},
		{
			name:       "plain labels",
			output:     "Entity: Globex\nDocument Type: Earnings Release\nReporting Period: Q3 2025",
			wantEntity: "Globex",
			wantType:   "Earnings Release",
			wantPeriod: "Q3 2025",
		},
		{
			name:   "missing labels yield empty strings",
			output: "This does not look like a financial document.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, docType, period := parseVerification(tt.output)
			assert.Equal(t, tt.wantEntity, entity)
			assert.Equal(t, tt.wantType, docType)
			assert.Equal(t, tt.wantPeriod, period)
		})
	}
}

func TestNewAnalyzerFactory(t *testing.T) {
	t.Run("mock provider", func(t *testing.T) {
		analyzer, err := NewAnalyzer(mockProviderConfig(), discardLogger())
		require.NoError(t, err)

		report, err := analyzer.Analyze(context.Background(), "doc", "query")
		require.NoError(t, err)
		assert.Equal(t, "Mock Corp", report.EntityName)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := mockProviderConfig()
		cfg.Provider = "carrier-pigeon"

		_, err := NewAnalyzer(cfg, discardLogger())
		require.Error(t, err)
	})
}
