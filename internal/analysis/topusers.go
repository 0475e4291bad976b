package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"socialpulse/pkg/models"
)

// topUserLimit is how many commenters the ranking keeps.
const topUserLimit = 10

// TopUserAnalyzer (Q8) ranks commenters by activity. The ranking itself is
// computed deterministically from the dataset; a single global call then
// characterizes the top group.
type TopUserAnalyzer struct {
	cfg Config
}

type topUser struct {
	Username    string `json:"username"`
	Comentarios int    `json:"comentarios"`
}

type topUserResults struct {
	UsuariosDestacados []topUser `json:"usuarios_destacados"`
	Caracterizacion    string    `json:"caracterizacion"`
}

func (a *TopUserAnalyzer) Analyze(ctx context.Context, ds *models.IngestedDataset) *models.AnalysisResult {
	mod := moduleByCode(Q8)
	groups := GroupByPost(ds)

	results := topUserResults{UsuariosDestacados: []topUser{}}

	counts := make(map[string]int)
	for _, g := range groups {
		for _, c := range g.Comments {
			u := strings.TrimSpace(c.OwnerUsername)
			if u == "" || strings.TrimSpace(c.CommentText) == "" {
				continue
			}
			counts[u]++
		}
	}

	if len(counts) == 0 {
		return envelope(mod, results, []*UnitError{noDataErr("global", "no attributed comments to rank")})
	}

	for u, n := range counts {
		results.UsuariosDestacados = append(results.UsuariosDestacados, topUser{Username: u, Comentarios: n})
	}
	sort.Slice(results.UsuariosDestacados, func(i, j int) bool {
		a, b := results.UsuariosDestacados[i], results.UsuariosDestacados[j]
		if a.Comentarios != b.Comentarios {
			return a.Comentarios > b.Comentarios
		}
		return a.Username < b.Username
	})
	if len(results.UsuariosDestacados) > topUserLimit {
		results.UsuariosDestacados = results.UsuariosDestacados[:topUserLimit]
	}

	var unitErrs []*UnitError
	var reply struct {
		Caracterizacion string `json:"caracterizacion"`
	}
	if ue := a.cfg.callJSON(ctx, "global", a.prompt(groups, results.UsuariosDestacados), &reply); ue != nil {
		// The deterministic ranking still stands on its own.
		unitErrs = append(unitErrs, ue)
	} else {
		results.Caracterizacion = reply.Caracterizacion
	}

	return envelope(mod, results, unitErrs)
}

func (a *TopUserAnalyzer) prompt(groups []PostComments, top []topUser) string {
	var names strings.Builder
	for _, u := range top {
		fmt.Fprintf(&names, "- %s (%d comentarios)\n", u.Username, u.Comentarios)
	}
	return fmt.Sprintf(`Estos son los usuarios que más comentan las publicaciones de %s:
%s
Comentarios de muestra:
%s
En una o dos frases, caracteriza a este grupo de usuarios (qué los motiva,
cómo se relacionan con la marca). Devuelve SOLO un objeto JSON con esta
forma exacta:
{"caracterizacion": "..."}`,
		a.cfg.ClientName, names.String(), allCommentText(groups, maxGlobalPromptChars/2))
}
