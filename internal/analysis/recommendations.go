package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// RecommendationAnalyzer (Q9) turns the comment corpus plus brand context
// into strategic opportunities and concrete recommendations in a single
// global call.
type RecommendationAnalyzer struct {
	cfg Config
}

type recommendation struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	Prioridad   string `json:"prioridad"`
}

type recommendationResults struct {
	ListaOportunidades []string         `json:"lista_oportunidades"`
	Recomendaciones    []recommendation `json:"recomendaciones"`
}

func (a *RecommendationAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q9)
	groups := GroupByPost(ds)

	results := recommendationResults{
		ListaOportunidades: []string{},
		Recomendaciones:    []recommendation{},
	}

	corpus := allCommentText(groups, maxGlobalPromptChars)
	if corpus == "" {
		return envelope(mod, results, []*UnitError{noDataErr("global", "no comments to analyze")})
	}

	var reply struct {
		ListaOportunidades []string `json:"lista_oportunidades"`
		Recomendaciones    []struct {
			Titulo      string `json:"titulo"`
			Descripcion string `json:"descripcion"`
			Prioridad   string `json:"prioridad"`
		} `json:"recomendaciones"`
	}
	if ue := a.cfg.callJSON(ctx, "global", a.prompt(corpus), &reply); ue != nil {
		return envelope(mod, results, []*UnitError{ue})
	}

	if reply.ListaOportunidades != nil {
		results.ListaOportunidades = reply.ListaOportunidades
	}
	for _, r := range reply.Recomendaciones {
		if r.Titulo == "" {
			continue
		}
		results.Recomendaciones = append(results.Recomendaciones, recommendation{
			Titulo:      r.Titulo,
			Descripcion: r.Descripcion,
			Prioridad:   normalizePriority(r.Prioridad),
		})
	}

	return envelope(mod, results, nil)
}

// normalizePriority maps free-form priorities to alta/media/baja, defaulting
// to media.
func normalizePriority(p string) string {
	switch p {
	case "alta", "media", "baja":
		return p
	default:
		return "media"
	}
}

func (a *RecommendationAnalyzer) prompt(corpus string) string {
	return fmt.Sprintf(`Eres un estratega de marketing. Con base en los comentarios que recibe
%s, identifica oportunidades y propone recomendaciones accionables.
Contexto de marca: %s

Comentarios:
%s

Devuelve SOLO un objeto JSON con esta forma exacta (prioridad: alta, media o baja):
{"lista_oportunidades": ["..."], "recomendaciones": [{"titulo": "...", "descripcion": "...", "prioridad": "alta"}]}`,
		a.cfg.ClientName, a.cfg.BrandContext, corpus)
}
