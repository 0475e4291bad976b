package analysis

import "fmt"

// Code identifies one of the ten analysis modules.
type Code string

const (
	Q1  Code = "Q1"
	Q2  Code = "Q2"
	Q3  Code = "Q3"
	Q4  Code = "Q4"
	Q5  Code = "Q5"
	Q6  Code = "Q6"
	Q7  Code = "Q7"
	Q8  Code = "Q8"
	Q9  Code = "Q9"
	Q10 Code = "Q10"
)

// Module describes one analysis module and how to construct its analyzer.
type Module struct {
	Code        Code
	Slug        string
	Version     int
	Description string
	New         func(cfg Config) Analyzer
}

// Modules returns the module descriptors in fixed ascending run order.
// Built fresh per call so callers can't mutate shared state.
func Modules() []Module {
	return []Module{
		{Q1, "emociones", 2, "Análisis de emociones en comentarios", func(cfg Config) Analyzer { return &EmotionAnalyzer{cfg: cfg} }},
		{Q2, "temas", 1, "Modelado de temas de conversación", func(cfg Config) Analyzer { return &TopicAnalyzer{cfg: cfg} }},
		{Q3, "sentimiento", 1, "Distribución de sentimiento por publicación", func(cfg Config) Analyzer { return &SentimentAnalyzer{cfg: cfg} }},
		{Q4, "intencion_compra", 1, "Señales de intención de compra", func(cfg Config) Analyzer { return &IntentAnalyzer{cfg: cfg} }},
		{Q5, "perfil_audiencia", 1, "Perfil y arquetipos de audiencia", func(cfg Config) Analyzer { return &AudienceAnalyzer{cfg: cfg} }},
		{Q6, "quejas", 1, "Quejas y puntos de dolor", func(cfg Config) Analyzer { return &ComplaintAnalyzer{cfg: cfg} }},
		{Q7, "competencia", 1, "Menciones de competidores", func(cfg Config) Analyzer { return &CompetitorAnalyzer{cfg: cfg} }},
		{Q8, "usuarios_destacados", 1, "Usuarios más activos y su caracterización", func(cfg Config) Analyzer { return &TopUserAnalyzer{cfg: cfg} }},
		{Q9, "recomendaciones", 2, "Oportunidades y recomendaciones estratégicas", func(cfg Config) Analyzer { return &RecommendationAnalyzer{cfg: cfg} }},
		{Q10, "resumen_ejecutivo", 1, "Síntesis ejecutiva de Q1–Q9", func(cfg Config) Analyzer { return &SummaryAnalyzer{cfg: cfg} }},
	}
}

// Lookup resolves a module code ("Q1".."Q10"). The boolean is false for
// unrecognized codes.
func Lookup(code string) (Module, bool) {
	for _, m := range Modules() {
		if string(m.Code) == code {
			return m, true
		}
	}
	return Module{}, false
}

// moduleByCode panics on unknown codes; internal use only where the code is
// a package constant.
func moduleByCode(code Code) Module {
	m, ok := Lookup(string(code))
	if !ok {
		panic(fmt.Sprintf("unknown module code %s", code))
	}
	return m
}
