package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// emotionKeys are the eight Plutchik emotions every Q1 result carries, in
// output order.
var emotionKeys = []string{
	"alegria", "confianza", "miedo", "sorpresa",
	"tristeza", "disgusto", "enojo", "anticipacion",
}

// EmotionAnalyzer (Q1) scores the eight base emotions per publication and
// averages them into a global summary.
type EmotionAnalyzer struct {
	cfg Config
}

type postEmotions struct {
	PostURL   string             `json:"post_url"`
	Emociones map[string]float64 `json:"emociones"`
}

type emotionResults struct {
	AnalisisPorPublicacion []postEmotions     `json:"analisis_por_publicacion"`
	ResumenGlobal          map[string]float64 `json:"resumen_global_emociones"`
}

func (a *EmotionAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q1)
	groups := GroupByPost(ds)

	results := emotionResults{
		AnalisisPorPublicacion: []postEmotions{},
		ResumenGlobal:          zeroEmotions(),
	}

	var unitErrs []*UnitError
	analyzed := 0

	for _, g := range groups {
		if !g.HasText() {
			continue
		}
		analyzed++

		var reply struct {
			Emociones map[string]any `json:"emociones"`
		}
		if ue := a.cfg.callJSON(ctx, g.Post.PostURL, a.prompt(g), &reply); ue != nil {
			unitErrs = append(unitErrs, ue)
			continue
		}

		scores := make(map[string]float64, len(emotionKeys))
		for _, k := range emotionKeys {
			scores[k] = clamp(coerceFloat(reply.Emociones[k], "emociones."+k))
		}
		results.AnalisisPorPublicacion = append(results.AnalisisPorPublicacion, postEmotions{
			PostURL:   g.Post.PostURL,
			Emociones: scores,
		})
	}

	if analyzed == 0 {
		unitErrs = append(unitErrs, noDataErr("global", "no posts with comment text to analyze"))
		return envelope(mod, results, unitErrs)
	}

	// Global summary: arithmetic mean over successfully parsed posts.
	if n := len(results.AnalisisPorPublicacion); n > 0 {
		for _, k := range emotionKeys {
			vals := make([]float64, 0, n)
			for _, pe := range results.AnalisisPorPublicacion {
				vals = append(vals, pe.Emociones[k])
			}
			results.ResumenGlobal[k] = mean(vals)
		}
	}

	return envelope(mod, results, unitErrs)
}

func (a *EmotionAnalyzer) prompt(g PostComments) string {
	return fmt.Sprintf(`Eres un analista de marketing. Analiza las emociones expresadas en los
comentarios de esta publicación de %s.

Publicación: %s
Comentarios:
%s
Devuelve SOLO un objeto JSON con esta forma exacta, donde cada valor es un
número entre 0.0 y 1.0:
{"emociones": {"alegria": 0.7, "confianza": 0.5, "miedo": 0.0, "sorpresa": 0.2, "tristeza": 0.1, "disgusto": 0.0, "enojo": 0.0, "anticipacion": 0.3}}`,
		a.cfg.ClientName, g.Post.Caption, g.CommentText())
}

func zeroEmotions() map[string]float64 {
	m := make(map[string]float64, len(emotionKeys))
	for _, k := range emotionKeys {
		m[k] = 0
	}
	return m
}
