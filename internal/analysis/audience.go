package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// maxGlobalPromptChars bounds the comment text embedded in single-call
// prompts (Q5, Q7, Q9).
const maxGlobalPromptChars = 12000

// AudienceAnalyzer (Q5) builds an audience profile from the whole comment
// corpus in a single global call.
type AudienceAnalyzer struct {
	cfg Config
}

type audienceResults struct {
	Arquetipos  []arquetipo `json:"arquetipos"`
	Intereses   []string    `json:"intereses"`
	TonoGeneral string      `json:"tono_general"`
}

type arquetipo struct {
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	Proporcion  float64 `json:"proporcion"`
}

func (a *AudienceAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q5)
	groups := GroupByPost(ds)

	results := audienceResults{Arquetipos: []arquetipo{}, Intereses: []string{}}

	corpus := allCommentText(groups, maxGlobalPromptChars)
	if corpus == "" {
		return envelope(mod, results, []*UnitError{noDataErr("global", "no comments to analyze")})
	}

	var reply struct {
		Arquetipos []struct {
			Nombre      string `json:"nombre"`
			Descripcion string `json:"descripcion"`
			Proporcion  any    `json:"proporcion"`
		} `json:"arquetipos"`
		Intereses   []string `json:"intereses"`
		TonoGeneral string   `json:"tono_general"`
	}
	if ue := a.cfg.callJSON(ctx, "global", a.prompt(corpus), &reply); ue != nil {
		return envelope(mod, results, []*UnitError{ue})
	}

	for _, aq := range reply.Arquetipos {
		if aq.Nombre == "" {
			continue
		}
		results.Arquetipos = append(results.Arquetipos, arquetipo{
			Nombre:      aq.Nombre,
			Descripcion: aq.Descripcion,
			Proporcion:  clamp(coerceFloat(aq.Proporcion, "arquetipos.proporcion")),
		})
	}
	if reply.Intereses != nil {
		results.Intereses = reply.Intereses
	}
	results.TonoGeneral = reply.TonoGeneral

	return envelope(mod, results, nil)
}

func (a *AudienceAnalyzer) prompt(corpus string) string {
	return fmt.Sprintf(`Con base en todos los comentarios recibidos por %s, describe el perfil
de su audiencia. Contexto de marca: %s

Comentarios:
%s

Devuelve SOLO un objeto JSON con esta forma exacta (proporción entre 0.0 y 1.0):
{"arquetipos": [{"nombre": "cazador de ofertas", "descripcion": "...", "proporcion": 0.4}], "intereses": ["descuentos", "novedades"], "tono_general": "entusiasta"}`,
		a.cfg.ClientName, a.cfg.BrandContext, corpus)
}
