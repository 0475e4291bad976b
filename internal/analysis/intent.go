package analysis

import (
	"context"
	"fmt"

	"socialpulse/pkg/models"
)

// IntentAnalyzer (Q4) extracts purchase-intent signals per publication and
// averages the intent score globally.
type IntentAnalyzer struct {
	cfg Config
}

type postIntent struct {
	PostURL             string   `json:"post_url"`
	SenalesCompra       []string `json:"senales_compra"`
	PuntuacionIntencion float64  `json:"puntuacion_intencion"`
}

type intentResults struct {
	AnalisisPorPublicacion   []postIntent `json:"analisis_por_publicacion"`
	PuntuacionIntencionMedia float64      `json:"puntuacion_intencion_media"`
	SenalesDestacadas        []string     `json:"senales_destacadas"`
}

func (a *IntentAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q4)
	groups := GroupByPost(ds)

	results := intentResults{
		AnalisisPorPublicacion: []postIntent{},
		SenalesDestacadas:      []string{},
	}

	var unitErrs []*UnitError
	analyzed := 0

	for _, g := range groups {
		if !g.HasText() {
			continue
		}
		analyzed++

		var reply struct {
			SenalesCompra       []string `json:"senales_compra"`
			PuntuacionIntencion any      `json:"puntuacion_intencion"`
		}
		if ue := a.cfg.callJSON(ctx, g.Post.PostURL, a.prompt(g), &reply); ue != nil {
			unitErrs = append(unitErrs, ue)
			continue
		}

		pi := postIntent{
			PostURL:             g.Post.PostURL,
			SenalesCompra:       reply.SenalesCompra,
			PuntuacionIntencion: clamp(coerceFloat(reply.PuntuacionIntencion, "puntuacion_intencion")),
		}
		if pi.SenalesCompra == nil {
			pi.SenalesCompra = []string{}
		}
		results.AnalisisPorPublicacion = append(results.AnalisisPorPublicacion, pi)
	}

	if analyzed == 0 {
		unitErrs = append(unitErrs, noDataErr("global", "no posts with comment text to analyze"))
		return envelope(mod, results, unitErrs)
	}

	scores := make([]float64, 0, len(results.AnalisisPorPublicacion))
	for _, pi := range results.AnalisisPorPublicacion {
		scores = append(scores, pi.PuntuacionIntencion)
		// Keep at most the first two signals per post in the highlight list.
		for i, s := range pi.SenalesCompra {
			if i >= 2 {
				break
			}
			results.SenalesDestacadas = append(results.SenalesDestacadas, s)
		}
	}
	results.PuntuacionIntencionMedia = mean(scores)

	return envelope(mod, results, unitErrs)
}

func (a *IntentAnalyzer) prompt(g PostComments) string {
	return fmt.Sprintf(`Detecta señales de intención de compra en los comentarios de esta
publicación de %s (preguntas por precio, disponibilidad, envíos, deseo
explícito de comprar).

Publicación: %s
Comentarios:
%s
Devuelve SOLO un objeto JSON con esta forma exacta (puntuación entre 0.0 y 1.0):
{"senales_compra": ["pregunta por el precio", "pide link de compra"], "puntuacion_intencion": 0.6}`,
		a.cfg.ClientName, g.Post.Caption, g.CommentText())
}
