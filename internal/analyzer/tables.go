package analyzer

// DefaultModelLimit is the conservative context-window fallback applied when
// a model is not in the table.
const DefaultModelLimit = 8000

// modelLimits maps model identifiers to approximate context-window sizes in
// tokens (snapshot of published limits, April 2025).
var modelLimits = map[string]int{
	// OpenAI
	"gpt-3.5-turbo":           16385,
	"gpt-3.5-turbo-16k":       16385,
	"gpt-4":                   8192,
	"gpt-4-32k":               32768,
	"gpt-4o":                  128000,
	"gpt-4o-mini":             128000,
	"gpt-4.1":                 1047576,
	"gpt-4.1-mini":            1047576,
	"gpt-4.1-nano":            1047576,
	"gpt-4.1-nano-2025-04-14": 1047576,
	"gpt-4.5":                 1047576,

	// Anthropic
	"claude-3-opus":            200000,
	"claude-3-sonnet":          200000,
	"claude-3.5-sonnet":        200000,
	"claude-3-haiku":           200000,
	"anthropic.claude-3-haiku": 200000,

	// Google
	"gemini-pro":       32000,
	"gemini-flash":     32000,
	"gemini-1.5-pro":   1000000,
	"gemini-1.5-flash": 1000000,

	// Meta and Mistral
	"llama-3-70b":    8192,
	"llama-3-8b":     8192,
	"mistral-large":  32768,
	"mistral-medium": 32768,
}

// ModelLimitFor resolves the context-window size for a model, falling back to
// DefaultModelLimit for unknown identifiers.
func ModelLimitFor(model string) int {
	if limit, ok := modelLimits[model]; ok {
		return limit
	}
	return DefaultModelLimit
}

// Content-type labels assigned by the classifier.
const (
	ContentTypeScientific  = "scientific_article"
	ContentTypeLiterature  = "literature"
	ContentTypeTechnical   = "technical_document"
	ContentTypeEducational = "educational_content"
	ContentTypeLegal       = "legal_document"
	ContentTypeEmail       = "email_communication"
)

// contentTypeProfile is one row of the classifier table: a label plus the
// keyword indicators counted against the lower-cased sample. Slice order is
// the tie-break order, so the table must stay a slice, not a map.
type contentTypeProfile struct {
	Label    string
	Keywords []string
}

var contentTypeProfiles = []contentTypeProfile{
	{
		Label: ContentTypeScientific,
		Keywords: []string{
			"abstract", "metodologia", "methodology", "referências", "citações",
			"estudo", "pesquisa", "doi", "análise", "conclusão", "bibliografia",
		},
	},
	{
		Label: ContentTypeLiterature,
		Keywords: []string{
			"capítulo", "personagens", "história", "narrativa", "romance",
			"conto", "autor", "obra", "livro", "ficção",
		},
	},
	{
		Label: ContentTypeTechnical,
		Keywords: []string{
			"manual", "instruções", "especificações", "requisitos", "configuração",
			"implementação", "sistema", "software", "hardware", "versão",
		},
	},
	{
		Label: ContentTypeEducational,
		Keywords: []string{
			"aprendizagem", "exercícios", "habilidades", "competências", "bncc",
			"currículo", "educação", "ensino", "aluno", "professor", "disciplina",
			"conhecimento", "pedagógico", "escolar", "escola", "avaliação",
			"estudante", "ministério da educação", "diretrizes",
		},
	},
	{
		Label: ContentTypeLegal,
		Keywords: []string{
			"lei", "artigo", "parágrafo", "norma", "normativo", "regulamento",
			"jurídico", "contrato", "decreto", "legislação", "cláusula",
			"judicial", "direito",
		},
	},
	{
		Label: ContentTypeEmail,
		Keywords: []string{
			"assunto", "prezado", "cordialmente", "atenciosamente", "reunião",
			"informamos", "contato", "prezada", "encaminho", "conforme solicitado",
		},
	},
}

// ChunkingRecommendation suggests splitting parameters for downstream
// consumption by a size-limited model.
type ChunkingRecommendation struct {
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Description  string `json:"description"`
}

// chunkingByContentType holds the recommended chunking defaults per detected
// content type.
var chunkingByContentType = map[string]ChunkingRecommendation{
	ContentTypeScientific:  {ChunkSize: 1500, ChunkOverlap: 150, Description: "dense text with citations and specific terminology"},
	ContentTypeLiterature:  {ChunkSize: 2000, ChunkOverlap: 200, Description: "fluid narratives with continuous context"},
	ContentTypeTechnical:   {ChunkSize: 1000, ChunkOverlap: 150, Description: "technical manuals with specific instructions"},
	ContentTypeEducational: {ChunkSize: 1200, ChunkOverlap: 120, Description: "didactic text with structured concepts"},
	ContentTypeLegal:       {ChunkSize: 800, ChunkOverlap: 200, Description: "normative text with formal language and cross references"},
	ContentTypeEmail:       {ChunkSize: 500, ChunkOverlap: 50, Description: "short and direct communication"},
}

// ChunkingFor returns the chunking defaults for a content-type label.
func ChunkingFor(contentType string) (ChunkingRecommendation, bool) {
	chunking, ok := chunkingByContentType[contentType]
	return chunking, ok
}
