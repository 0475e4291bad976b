package analysis

import (
	"context"
	"fmt"
	"sort"

	"socialpulse/pkg/models"
)

// ComplaintAnalyzer (Q6) surfaces complaints and pain points per
// publication and ranks them globally by severity.
type ComplaintAnalyzer struct {
	cfg Config
}

type complaint struct {
	Tema     string  `json:"tema"`
	Gravedad float64 `json:"gravedad"`
	PostURL  string  `json:"post_url"`
}

type complaintResults struct {
	Quejas        []complaint `json:"quejas"`
	TotalDetectadas int       `json:"total_detectadas"`
}

func (a *ComplaintAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q6)
	groups := GroupByPost(ds)

	results := complaintResults{Quejas: []complaint{}}

	var unitErrs []*UnitError
	analyzed := 0

	for _, g := range groups {
		if !g.HasText() {
			continue
		}
		analyzed++

		var reply struct {
			Quejas []struct {
				Tema     string `json:"tema"`
				Gravedad any    `json:"gravedad"`
			} `json:"quejas"`
		}
		if ue := a.cfg.callJSON(ctx, g.Post.PostURL, a.prompt(g), &reply); ue != nil {
			unitErrs = append(unitErrs, ue)
			continue
		}

		for _, q := range reply.Quejas {
			if q.Tema == "" {
				continue
			}
			results.Quejas = append(results.Quejas, complaint{
				Tema:     q.Tema,
				Gravedad: clamp(coerceFloat(q.Gravedad, "quejas.gravedad")),
				PostURL:  g.Post.PostURL,
			})
		}
	}

	if analyzed == 0 {
		unitErrs = append(unitErrs, noDataErr("global", "no posts with comment text to analyze"))
		return envelope(mod, results, unitErrs)
	}

	sort.Slice(results.Quejas, func(i, j int) bool {
		return results.Quejas[i].Gravedad > results.Quejas[j].Gravedad
	})
	results.TotalDetectadas = len(results.Quejas)

	return envelope(mod, results, unitErrs)
}

func (a *ComplaintAnalyzer) prompt(g PostComments) string {
	return fmt.Sprintf(`Identifica quejas y puntos de dolor en los comentarios de esta
publicación de %s. Si no hay quejas devuelve una lista vacía.

Publicación: %s
Comentarios:
%s
Devuelve SOLO un objeto JSON con esta forma exacta (gravedad entre 0.0 y 1.0):
{"quejas": [{"tema": "demora en el envío", "gravedad": 0.7}]}`,
		a.cfg.ClientName, g.Post.Caption, g.CommentText())
}
