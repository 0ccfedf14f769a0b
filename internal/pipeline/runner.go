package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Runner executes the five analysis stages sequentially over a ChatClient.
// Each stage receives the document, the query, and all prior stage outputs,
// so later stages can build on earlier findings.
type Runner struct {
	chat   ChatClient
	logger *slog.Logger
}

func NewRunner(chat ChatClient, logger *slog.Logger) *Runner {
	return &Runner{
		chat:   chat,
		logger: logger,
	}
}

var _ Analyzer = (*Runner)(nil)

func (r *Runner) Analyze(ctx context.Context, documentText, query string) (*Report, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, ErrEmptyDocument
	}

	report := &Report{}
	outputs := make(map[string]string, len(stages))

	for _, st := range stages {
		r.logger.Debug("Running pipeline stage",
			slog.String("stage", st.name),
		)

		out, err := r.chat.Complete(ctx, st.system, buildUserPrompt(documentText, query, outputs))
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", st.name, err)
		}

		outputs[st.name] = out
	}

	report.VerificationOutput = outputs[stageVerification]
	report.AnalysisOutput = outputs[stageAnalysis]
	report.InvestmentOutput = outputs[stageInvestment]
	report.RiskOutput = outputs[stageRisk]
	report.MarketOutput = outputs[stageMarket]
	report.FullOutput = combineOutputs(outputs)

	report.EntityName, report.DocumentType, report.ReportingPeriod = parseVerification(report.VerificationOutput)

	return report, nil
}

// buildUserPrompt assembles the per-stage prompt: query, prior stage
// outputs in pipeline order, then the document text.
func buildUserPrompt(documentText, query string, prior map[string]string) string {
	var b strings.Builder

	b.WriteString("User query: ")
	b.WriteString(query)
	b.WriteString("\n\n")

	for _, st := range stages {
		out, ok := prior[st.name]
		if !ok {
			continue
		}
		b.WriteString("Output of the ")
		b.WriteString(st.name)
		b.WriteString(" stage:\n")
		b.WriteString(out)
		b.WriteString("\n\n")
	}

	b.WriteString("Document text:\n")
	b.WriteString(documentText)

	return b.String()
}

// combineOutputs renders the canonical combined report text
func combineOutputs(outputs map[string]string) string {
	var b strings.Builder

	for i, st := range stages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(sectionTitles[st.name])
		b.WriteString("\n\n")
		b.WriteString(outputs[st.name])
	}

	return b.String()
}

// parseVerification scans the verification stage output for the
// labelled entity, document type, and reporting period lines.
// Missing labels simply yield empty strings.
func parseVerification(out string) (entity, docType, period string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*"))

		switch {
		case strings.HasPrefix(line, "Entity:"):
			entity = strings.TrimSpace(strings.TrimPrefix(line, "Entity:"))
		case strings.HasPrefix(line, "Document Type:"):
			docType = strings.TrimSpace(strings.TrimPrefix(line, "Document Type:"))
		case strings.HasPrefix(line, "Reporting Period:"):
			period = strings.TrimSpace(strings.TrimPrefix(line, "Reporting Period:"))
		}
	}
	return entity, docType, period
}
