package pipeline

import "context"

// MockAnalyzer satisfies Analyzer for testing and local development
type MockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, documentText, query string) (*Report, error)
}

var _ Analyzer = (*MockAnalyzer)(nil)

func (m *MockAnalyzer) Analyze(ctx context.Context, documentText, query string) (*Report, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, documentText, query)
	}
	return &Report{}, nil
}

// NewMockAnalyzer returns a MockAnalyzer with canned stage outputs
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{
		AnalyzeFunc: func(_ context.Context, _, query string) (*Report, error) {
			return &Report{
				VerificationOutput: "VERDICT: Confirmed Financial Document\n- Entity: Mock Corp\n- Document Type: Quarterly Earnings Release\n- Reporting Period: Q1 2025",
				AnalysisOutput:     "Simulated financial analysis for query: " + query,
				InvestmentOutput:   "Simulated investment insights. Informational analysis only.",
				RiskOutput:         "Simulated risk assessment. No material risks identified.",
				MarketOutput:       "Simulated market intelligence summary.",
				FullOutput:         "Simulated combined analysis report for query: " + query,
				EntityName:         "Mock Corp",
				DocumentType:       "Quarterly Earnings Release",
				ReportingPeriod:    "Q1 2025",
			}, nil
		},
	}
}

// NewFailingAnalyzer returns a MockAnalyzer that always returns the given error
func NewFailingAnalyzer(err error) *MockAnalyzer {
	return &MockAnalyzer{
		AnalyzeFunc: func(_ context.Context, _, _ string) (*Report, error) {
			return nil, err
		},
	}
}
