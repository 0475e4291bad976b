package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// sentimentBuckets are the five distribution keys, in output order.
var sentimentBuckets = []string{
	"muy_positivo", "positivo", "neutro", "negativo", "muy_negativo",
}

// SentimentAnalyzer (Q3) estimates a five-bucket sentiment distribution per
// publication. The prompt asks for percentages summing to 100; the reply is
// not renormalized (prompting hint, not an enforced contract).
type SentimentAnalyzer struct {
	cfg Config
}

type postSentiment struct {
	PostURL      string             `json:"post_url"`
	Distribucion map[string]float64 `json:"distribucion"`
}

type sentimentResults struct {
	AnalisisPorPublicacion []postSentiment    `json:"analisis_por_publicacion"`
	AnalisisAgregado       map[string]float64 `json:"analisis_agregado"`
}

func (a *SentimentAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q3)
	groups := GroupByPost(ds)

	results := sentimentResults{
		AnalisisPorPublicacion: []postSentiment{},
		AnalisisAgregado:       zeroBuckets(),
	}

	var unitErrs []*UnitError
	analyzed := 0

	for _, g := range groups {
		if !g.HasText() {
			continue
		}
		analyzed++

		var reply struct {
			Distribucion map[string]any `json:"distribucion"`
		}
		if ue := a.cfg.callJSON(ctx, g.Post.PostURL, a.prompt(g), &reply); ue != nil {
			unitErrs = append(unitErrs, ue)
			continue
		}

		dist := make(map[string]float64, len(sentimentBuckets))
		for _, k := range sentimentBuckets {
			v := coerceFloat(reply.Distribucion[k], "distribucion."+k)
			if v < 0 {
				v = 0
			}
			dist[k] = v
		}
		results.AnalisisPorPublicacion = append(results.AnalisisPorPublicacion, postSentiment{
			PostURL:      g.Post.PostURL,
			Distribucion: dist,
		})
	}

	if analyzed == 0 {
		unitErrs = append(unitErrs, noDataErr("global", "no posts with comment text to analyze"))
		return envelope(mod, results, unitErrs)
	}

	if n := len(results.AnalisisPorPublicacion); n > 0 {
		for _, k := range sentimentBuckets {
			vals := make([]float64, 0, n)
			for _, ps := range results.AnalisisPorPublicacion {
				vals = append(vals, ps.Distribucion[k])
			}
			results.AnalisisAgregado[k] = mean(vals)
		}
	}

	return envelope(mod, results, unitErrs)
}

func (a *SentimentAnalyzer) prompt(g PostComments) string {
	return fmt.Sprintf(`Clasifica el sentimiento de los comentarios de esta publicación de %s
en cinco niveles.

Publicación: %s
Comentarios:
%s
Devuelve SOLO un objeto JSON con esta forma exacta. Los cinco valores son
porcentajes y deben sumar 100:
{"distribucion": {"muy_positivo": 20, "positivo": 40, "neutro": 25, "negativo": 10, "muy_negativo": 5}}`,
		a.cfg.ClientName, g.Post.Caption, g.CommentText())
}

func zeroBuckets() map[string]float64 {
	m := make(map[string]float64, len(sentimentBuckets))
	for _, k := range sentimentBuckets {
		m[k] = 0
	}
	return m
}
