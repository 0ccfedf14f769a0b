// Package pipeline provides the multi-stage document analysis capability.
// Callers treat it as a single opaque operation: document text plus a query
// in, a structured report out. Failures are classified as transient
// (retryable) or terminal via errors.go.
package pipeline

import "context"

// Report is the structured output of one full analysis run.
// Per-stage outputs are kept alongside the combined report text.
type Report struct {
	VerificationOutput string
	AnalysisOutput     string
	InvestmentOutput   string
	RiskOutput         string
	MarketOutput       string
	FullOutput         string

	EntityName      string
	DocumentType    string
	ReportingPeriod string
}

// Analyzer runs the analysis pipeline for one document
type Analyzer interface {
	Analyze(ctx context.Context, documentText, query string) (*Report, error)
}
