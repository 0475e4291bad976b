package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// CompetitorAnalyzer (Q7) scans the whole comment corpus for competitor
// mentions in a single global call.
type CompetitorAnalyzer struct {
	cfg Config
}

type competitorResults struct {
	Competidores []competitorMention `json:"competidores"`
}

type competitorMention struct {
	Nombre             string `json:"nombre"`
	MencionesEstimadas int    `json:"menciones_estimadas"`
	Contexto           string `json:"contexto"`
}

func (a *CompetitorAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q7)
	groups := GroupByPost(ds)

	results := competitorResults{Competidores: []competitorMention{}}

	corpus := allCommentText(groups, maxGlobalPromptChars)
	if corpus == "" {
		return envelope(mod, results, []*UnitError{noDataErr("global", "no comments to analyze")})
	}

	var reply struct {
		Competidores []struct {
			Nombre             string `json:"nombre"`
			MencionesEstimadas any    `json:"menciones_estimadas"`
			Contexto           string `json:"contexto"`
		} `json:"competidores"`
	}
	if ue := a.cfg.callJSON(ctx, "global", a.prompt(corpus), &reply); ue != nil {
		return envelope(mod, results, []*UnitError{ue})
	}

	for _, c := range reply.Competidores {
		if c.Nombre == "" {
			continue
		}
		n := int(coerceFloat(c.MencionesEstimadas, "competidores.menciones_estimadas"))
		if n < 0 {
			n = 0
		}
		results.Competidores = append(results.Competidores, competitorMention{
			Nombre:             c.Nombre,
			MencionesEstimadas: n,
			Contexto:           c.Contexto,
		})
	}

	return envelope(mod, results, nil)
}

func (a *CompetitorAnalyzer) prompt(corpus string) string {
	return fmt.Sprintf(`Busca menciones de marcas competidoras de %s en estos comentarios.
Contexto de marca: %s

Comentarios:
%s

Devuelve SOLO un objeto JSON con esta forma exacta (lista vacía si no hay menciones):
{"competidores": [{"nombre": "MarcaX", "menciones_estimadas": 3, "contexto": "comparaciones de precio"}]}`,
		a.cfg.ClientName, a.cfg.BrandContext, corpus)
}
