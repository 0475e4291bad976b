package analysis

import (
	"context"
	"fmt"
	"sort"

	"socialpulse/pkg/models"
)

// TopicAnalyzer (Q2) extracts conversation topics per publication and
// aggregates them into a global ranking by mentions.
type TopicAnalyzer struct {
	cfg Config
}

type postTopics struct {
	PostURL string      `json:"post_url"`
	Temas   []topicItem `json:"temas"`
}

type topicItem struct {
	Tema       string  `json:"tema"`
	Relevancia float64 `json:"relevancia"`
}

type globalTopic struct {
	Tema            string  `json:"tema"`
	Menciones       int     `json:"menciones"`
	RelevanciaMedia float64 `json:"relevancia_media"`
}

type topicResults struct {
	AnalisisPorPublicacion []postTopics  `json:"analisis_por_publicacion"`
	TemasGlobales          []globalTopic `json:"temas_globales"`
}

func (a *TopicAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q2)
	groups := GroupByPost(ds)

	results := topicResults{
		AnalisisPorPublicacion: []postTopics{},
		TemasGlobales:          []globalTopic{},
	}

	var unitErrs []*UnitError
	analyzed := 0

	type agg struct {
		count int
		sum   float64
	}
	global := map[string]*agg{}

	for _, g := range groups {
		if !g.HasText() {
			continue
		}
		analyzed++

		var reply struct {
			Temas []struct {
				Tema       string `json:"tema"`
				Relevancia any    `json:"relevancia"`
			} `json:"temas"`
		}
		if ue := a.cfg.callJSON(ctx, g.Post.PostURL, a.prompt(g), &reply); ue != nil {
			unitErrs = append(unitErrs, ue)
			continue
		}

		pt := postTopics{PostURL: g.Post.PostURL, Temas: []topicItem{}}
		for _, t := range reply.Temas {
			if t.Tema == "" {
				continue
			}
			rel := clamp(coerceFloat(t.Relevancia, "temas.relevancia"))
			pt.Temas = append(pt.Temas, topicItem{Tema: t.Tema, Relevancia: rel})
			if global[t.Tema] == nil {
				global[t.Tema] = &agg{}
			}
			global[t.Tema].count++
			global[t.Tema].sum += rel
		}
		results.AnalisisPorPublicacion = append(results.AnalisisPorPublicacion, pt)
	}

	if analyzed == 0 {
		unitErrs = append(unitErrs, noDataErr("global", "no posts with comment text to analyze"))
		return envelope(mod, results, unitErrs)
	}

	for tema, ag := range global {
		results.TemasGlobales = append(results.TemasGlobales, globalTopic{
			Tema:            tema,
			Menciones:       ag.count,
			RelevanciaMedia: ag.sum / float64(ag.count),
		})
	}
	sort.Slice(results.TemasGlobales, func(i, j int) bool {
		if results.TemasGlobales[i].Menciones != results.TemasGlobales[j].Menciones {
			return results.TemasGlobales[i].Menciones > results.TemasGlobales[j].Menciones
		}
		return results.TemasGlobales[i].Tema < results.TemasGlobales[j].Tema
	})

	return envelope(mod, results, unitErrs)
}

func (a *TopicAnalyzer) prompt(g PostComments) string {
	return fmt.Sprintf(`Identifica los temas de conversación en los comentarios de esta
publicación de %s.

Publicación: %s
Comentarios:
%s
Devuelve SOLO un objeto JSON con esta forma exacta (máximo 5 temas,
relevancia entre 0.0 y 1.0):
{"temas": [{"tema": "calidad del producto", "relevancia": 0.8}]}`,
		a.cfg.ClientName, g.Post.Caption, g.CommentText())
}
