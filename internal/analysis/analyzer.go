// Package analysis implements the ten Q1–Q10 analysis modules. Each module
// turns a fixed ingested dataset into a structured AnalysisResult by making
// one LLM call per post (or one global call), parsing the JSON reply, and
// aggregating. Failures never escape Analyze: they accumulate in the
// envelope's errors list.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"socialpulse/internal/llm"
	"socialpulse/pkg/models"
)

// Analyzer is the single operation every module implements.
// Analyze must always return a well-formed envelope and never panic;
// per-unit failures are reported through the envelope's errors.
type Analyzer interface {
	Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult
}

// Config is the read-only construction input for every analyzer.
type Config struct {
	Provider     llm.Provider
	Quota        *llm.QuotaLimiter
	ClientName   string
	BrandContext string

	// Prior holds same-run results from earlier modules (set by the
	// orchestrator for Q10 in an "all" run).
	Prior map[Code]*models.AnalysisResult

	// LoadPrior lazily fetches a persisted result when Prior misses
	// (Q10 running alone). May be nil; misses are tolerated.
	LoadPrior func(code Code) (*models.AnalysisResult, error)
}

// callJSON applies the quota, issues one provider call, and decodes the
// reply into out. Every failure path returns a tagged UnitError.
func (c Config) callJSON(ctx context.Context, unit, prompt string, out any) *UnitError {
	if c.Quota != nil {
		allowed, err := c.Quota.WaitAndReserve(ctx)
		if err != nil {
			return callErr(unit, err)
		}
		if !allowed {
			return callErr(unit, llm.ErrQuotaExhausted)
		}
	}

	raw, err := c.Provider.GenerateJSON(ctx, prompt)
	if err != nil {
		return callErr(unit, err)
	}
	if err := llm.UnmarshalReply(raw, out); err != nil {
		return parseErr(unit, err, string(raw))
	}
	return nil
}

// envelope assembles the shared result envelope. results must marshal
// cleanly; a marshal failure is recorded as one more error with an empty
// results object so the envelope stays well-formed.
func envelope(m Module, results any, unitErrs []*UnitError) *models.AnalysisResult {
	errs := make([]string, 0, len(unitErrs))
	for _, ue := range unitErrs {
		errs = append(errs, ue.Error())
	}

	payload, err := json.Marshal(results)
	if err != nil {
		errs = append(errs, fmt.Sprintf("encode results: %v", err))
		payload = json.RawMessage(`{}`)
	}

	return &models.AnalysisResult{
		Metadata: models.ResultMetadata{
			Module:      string(m.Code),
			Version:     m.Version,
			Description: m.Description,
		},
		Results: payload,
		Errors:  errs,
	}
}
