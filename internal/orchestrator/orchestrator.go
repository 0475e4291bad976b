// Package orchestrator runs the Q1–Q10 analysis batch for one client:
// resolve the requested modules, load the dataset, run each module inside
// its own error boundary, and persist every envelope through the configured
// sink.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"socialpulse/internal/analysis"
	"socialpulse/internal/apiclient"
	"socialpulse/internal/config"
	"socialpulse/internal/llm"
	"socialpulse/internal/sink"
	"socialpulse/pkg/models"
)

// SelectorAll runs every module in ascending order.
const SelectorAll = "all"

// Orchestrator owns one batch run. API is nil in pure file mode.
type Orchestrator struct {
	cfg      *config.OrchestratorConfig
	provider llm.Provider
	quota    *llm.QuotaLimiter
	sink     sink.Sink
	api      apiclient.Client
}

// Summary reports the outcome of a run.
type Summary struct {
	Succeeded int
	Failed    int
}

func New(cfg *config.OrchestratorConfig, provider llm.Provider, quota *llm.QuotaLimiter, s sink.Sink, api apiclient.Client) *Orchestrator {
	return &Orchestrator{cfg: cfg, provider: provider, quota: quota, sink: s, api: api}
}

// Run executes the selected modules sequentially. An unrecognized selector
// is logged and skipped without error; per-module failures are counted but
// never abort the remaining modules.
func (o *Orchestrator) Run(ctx context.Context, selector string) (*Summary, error) {
	modules, ok := o.resolve(selector)
	if !ok {
		slog.Warn("unrecognized module", "selector", selector)
		return &Summary{}, nil
	}

	clientName, brandContext, since, err := o.clientContext(ctx)
	if err != nil {
		return nil, err
	}

	ds, err := o.loadDataset(ctx, since)
	if err != nil {
		return nil, err
	}
	slog.Info("dataset loaded",
		"client_id", o.cfg.ClientID,
		"posts", len(ds.Posts),
		"comments", len(ds.Comments),
		"modules", len(modules))

	prior := make(map[analysis.Code]*models.AnalysisResult, len(modules))
	base := analysis.Config{
		Provider:     o.provider,
		Quota:        o.quota,
		ClientName:   clientName,
		BrandContext: brandContext,
		Prior:        prior,
		LoadPrior:    o.loadPrior(ctx),
	}

	summary := &Summary{}
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		start := time.Now()
		result, err := o.runModule(ctx, m, base, ds)
		if err != nil {
			slog.Error("module failed", "module", m.Code, "error", err)
			summary.Failed++
			continue
		}

		prior[m.Code] = result
		summary.Succeeded++
		slog.Info("module completed",
			"module", m.Code,
			"slug", m.Slug,
			"unit_errors", len(result.Errors),
			"duration", time.Since(start).Round(time.Millisecond))

		if m.Code == analysis.Q9 {
			o.triggerTaskGeneration(ctx)
		}
	}

	o.markAnalyzed(ctx, selector, summary)

	slog.Info("run finished",
		"client_id", o.cfg.ClientID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return summary, nil
}

// resolve maps the selector to the module list to run.
func (o *Orchestrator) resolve(selector string) ([]analysis.Module, bool) {
	if selector == SelectorAll {
		return analysis.Modules(), true
	}
	m, ok := analysis.Lookup(selector)
	if !ok {
		return nil, false
	}
	return []analysis.Module{m}, true
}

// runModule runs one analyzer and persists its envelope. Analyzer panics
// are contained here so a buggy module never takes down its siblings.
func (o *Orchestrator) runModule(ctx context.Context, m analysis.Module, base analysis.Config, ds *models.IngestedDataset) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("module %s panicked: %v", m.Code, r)
		}
	}()

	result = m.New(base).Analyze(ctx, ds)
	if err := o.sink.Persist(ctx, string(m.Code), m.Slug, result); err != nil {
		return nil, err
	}
	return result, nil
}

// clientContext resolves the client profile. In api mode the profile comes
// from the server and carries the incremental watermark; in file mode the
// client id doubles as the display name.
func (o *Orchestrator) clientContext(ctx context.Context) (name, brand string, since *time.Time, err error) {
	if o.api == nil {
		return o.cfg.ClientID, "", nil, nil
	}
	cl, err := o.api.GetClient(ctx, o.cfg.ClientID)
	if err != nil {
		return "", "", nil, fmt.Errorf("fetching client profile: %w", err)
	}
	return cl.Name, cl.BrandContext, cl.LastAnalyzedAt, nil
}

func (o *Orchestrator) loadDataset(ctx context.Context, since *time.Time) (*models.IngestedDataset, error) {
	if o.cfg.Sink == "api" && o.api != nil {
		return o.api.FetchDataset(ctx, o.cfg.ClientID, since)
	}
	return analysis.LoadDataset(o.cfg.DatasetPath)
}

// loadPrior returns the lazy fallback Q10 uses when a same-run result is
// missing: persisted insights in api mode, sink output files in file mode.
func (o *Orchestrator) loadPrior(ctx context.Context) func(code analysis.Code) (*models.AnalysisResult, error) {
	return func(code analysis.Code) (*models.AnalysisResult, error) {
		if o.cfg.Sink == "api" && o.api != nil {
			return o.api.GetInsight(ctx, o.cfg.ClientID, string(code))
		}

		m, ok := analysis.Lookup(string(code))
		if !ok {
			return nil, fmt.Errorf("unknown module %s", code)
		}
		path := filepath.Join(o.cfg.OutputsDir, fmt.Sprintf("%s_%s.json", m.Code, m.Slug))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading prior result: %w", err)
		}
		var res models.AnalysisResult
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("parsing prior result %s: %w", path, err)
		}
		return &res, nil
	}
}

// triggerTaskGeneration asks the API to synthesize tasks from Q9's output.
// File mode only, fire and forget: a failure is logged, never retried.
func (o *Orchestrator) triggerTaskGeneration(ctx context.Context) {
	if o.cfg.Sink != "file" || o.api == nil {
		return
	}
	if err := o.api.TriggerTaskGeneration(ctx, o.cfg.ClientID); err != nil {
		slog.Warn("task generation trigger failed", "client_id", o.cfg.ClientID, "error", err)
		return
	}
	slog.Info("task generation triggered", "client_id", o.cfg.ClientID)
}

// markAnalyzed advances the client's incremental watermark after a full,
// fully-successful api-mode run.
func (o *Orchestrator) markAnalyzed(ctx context.Context, selector string, s *Summary) {
	if o.cfg.Sink != "api" || o.api == nil || selector != SelectorAll || s.Failed > 0 {
		return
	}
	if err := o.api.PatchLastAnalyzed(ctx, o.cfg.ClientID, time.Now().UTC()); err != nil {
		slog.Warn("updating last_analyzed_at failed", "client_id", o.cfg.ClientID, "error", err)
	}
}
