package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialpulse/pkg/models"
)

// summaryInputs are the modules Q10 folds, in run order.
var summaryInputs = []Code{Q1, Q2, Q3, Q4, Q5, Q6, Q7, Q8, Q9}

// SummaryAnalyzer (Q10) synthesizes an executive summary from the results of
// Q1–Q9. In an "all" run the orchestrator supplies same-run results through
// Config.Prior; when Q10 runs alone, Config.LoadPrior fetches persisted
// results. Missing inputs are tolerated and noted in the prompt.
type SummaryAnalyzer struct {
	cfg Config
}

type summaryResults struct {
	ResumenEjecutivo string   `json:"resumen_ejecutivo"`
	HallazgosClave   []string `json:"hallazgos_clave"`
	ModulosIncluidos []string `json:"modulos_incluidos"`
}

func (a *SummaryAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q10)

	results := summaryResults{
		HallazgosClave:   []string{},
		ModulosIncluidos: []string{},
	}

	var sections strings.Builder
	for _, code := range summaryInputs {
		res := a.prior(code)
		if res == nil {
			continue
		}
		results.ModulosIncluidos = append(results.ModulosIncluidos, string(code))
		fmt.Fprintf(&sections, "## %s — %s\n%s\n\n", code, res.Metadata.Description, string(res.Results))
	}

	if len(results.ModulosIncluidos) == 0 {
		return envelope(mod, results, []*UnitError{noDataErr("global", "no prior module results available to summarize")})
	}

	var reply struct {
		ResumenEjecutivo string   `json:"resumen_ejecutivo"`
		HallazgosClave   []string `json:"hallazgos_clave"`
	}
	if ue := a.cfg.callJSON(ctx, "global", a.prompt(sections.String()), &reply); ue != nil {
		return envelope(mod, results, []*UnitError{ue})
	}

	results.ResumenEjecutivo = reply.ResumenEjecutivo
	if reply.HallazgosClave != nil {
		results.HallazgosClave = reply.HallazgosClave
	}

	return envelope(mod, results, nil)
}

// prior resolves one input module's result: same-run first, then the lazy
// loader. Loader failures are logged and treated as absences.
func (a *SummaryAnalyzer) prior(code Code) *models.AnalysisResult {
	if res, ok := a.cfg.Prior[code]; ok && res != nil {
		return res
	}
	if a.cfg.LoadPrior == nil {
		return nil
	}
	res, err := a.cfg.LoadPrior(code)
	if err != nil {
		slog.Warn("prior result unavailable", "module", code, "error", err)
		return nil
	}
	return res
}

func (a *SummaryAnalyzer) prompt(sections string) string {
	return fmt.Sprintf(`Eres un analista senior. Sintetiza los resultados de los módulos de
análisis de %s en un resumen ejecutivo para dirección. Contexto de
marca: %s

Resultados por módulo:
%s

Devuelve SOLO un objeto JSON con esta forma exacta:
{"resumen_ejecutivo": "...", "hallazgos_clave": ["...", "..."]}`,
		a.cfg.ClientName, a.cfg.BrandContext, sections)
}
