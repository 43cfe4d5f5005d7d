// Package templates holds the fixed catalog of filing outlines.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"pecajuridica-backend/models"
)

// ErrUnknownDocumentType is returned for identifiers outside the catalog
var ErrUnknownDocumentType = errors.New("unknown document type")

// Template is the outline a document type must follow
type Template struct {
	Type     models.DocumentType    `json:"type"`
	Title    string                 `json:"title"`
	Sections []string               `json:"sections"`
	Required []models.RequiredField `json:"required"`
}

// Requires reports whether field is mandatory for the template
func (t Template) Requires(field models.RequiredField) bool {
	for _, f := range t.Required {
		if f == field {
			return true
		}
	}
	return false
}

var (
	partiesAndFacts = []models.RequiredField{models.FieldParties, models.FieldFactSummary}
	factsOnly       = []models.RequiredField{models.FieldFactSummary}
)

// catalog order is the order reported by List
var catalog = []Template{
	{
		Type:     models.DocumentTypePetition,
		Title:    "Petição Inicial",
		Sections: []string{"preambulo", "dos_fatos", "fundamentacao_juridica", "jurisprudencia", "dos_pedidos", "valor_da_causa"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeAnswer,
		Title:    "Contestação",
		Sections: []string{"preambulo", "preliminares", "impugnacao_aos_fatos", "fundamentacao_juridica", "provas", "pedidos_finais"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeReply,
		Title:    "Réplica",
		Sections: []string{"preambulo", "impugnacao_aos_argumentos", "reforco_das_teses", "jurisprudencia", "pedidos"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeUrgentRelief,
		Title:    "Tutela de Urgência",
		Sections: []string{"preambulo", "fumus_boni_iuris", "periculum_in_mora", "fundamentacao_juridica", "pedidos_antecipatorios"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeInterlocutoryAppeal,
		Title:    "Agravo de Instrumento",
		Sections: []string{"preambulo", "exposicao_dos_fatos", "fundamentacao_juridica", "requerimentos", "documentos_obrigatorios"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeCaseManagement,
		Title:    "Pedido de Saneamento",
		Sections: []string{"preambulo", "pontos_controvertidos", "medidas_propostas", "fundamentacao", "pedidos"},
		Required: partiesAndFacts,
	},
	{
		Type:     models.DocumentTypeEvidenceRequest,
		Title:    "Produção de Provas",
		Sections: []string{"preambulo", "justificativa", "tipos_provas", "fundamentacao", "pedidos"},
		Required: factsOnly,
	},
	{
		Type:     models.DocumentTypeInterlocutoryMotion,
		Title:    "Petição Interlocutória",
		Sections: []string{"preambulo", "fundamentacao", "pedido"},
		Required: factsOnly,
	},
	{
		Type:     models.DocumentTypeStatement,
		Title:    "Manifestação",
		Sections: []string{"preambulo", "resposta_argumentos", "fundamentacao", "conclusao"},
		Required: factsOnly,
	},
	{
		Type:     models.DocumentTypeExpertQuestions,
		Title:    "Quesitos",
		Sections: []string{"introducao", "perguntas", "fundamento_tecnico"},
		Required: factsOnly,
	},
	{
		Type:     models.DocumentTypeClosingBrief,
		Title:    "Memoriais",
		Sections: []string{"preambulo", "resumo_dos_fatos", "teses_defendidas", "jurisprudencia_aplicavel", "conclusao"},
		Required: factsOnly,
	},
	{
		Type:     models.DocumentTypeAppeal,
		Title:    "Apelação",
		Sections: []string{"preambulo", "resumo_da_decisao", "fundamentacao", "reforma_pleiteada", "pedidos"},
		Required: factsOnly,
	},
}

// legacy identifiers still sent by older clients
var aliases = map[string]models.DocumentType{
	"peticao_inicial":    models.DocumentTypePetition,
	"contestacao":        models.DocumentTypeAnswer,
	"replica":            models.DocumentTypeReply,
	"tutela_urgencia":    models.DocumentTypeUrgentRelief,
	"agravo_instrumento": models.DocumentTypeInterlocutoryAppeal,
	"pedido_saneamento":  models.DocumentTypeCaseManagement,
	"producao_provas":    models.DocumentTypeEvidenceRequest,
	"interlocutoria":     models.DocumentTypeInterlocutoryMotion,
	"manifestacao":       models.DocumentTypeStatement,
	"quesitos":           models.DocumentTypeExpertQuestions,
	"memoriais":          models.DocumentTypeClosingBrief,
	"apelacao":           models.DocumentTypeAppeal,
}

var (
	requestsPattern = regexp.MustCompile(`pedido|requerimento`)
	groundsPattern  = regexp.MustCompile(`fundament|tese|fumus|periculum`)
	titleSplit      = regexp.MustCompile(`[_\s]+`)
)

// Get returns the template for docType
func Get(docType models.DocumentType) (Template, error) {
	for _, t := range catalog {
		if t.Type == docType {
			return t.clone(), nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrUnknownDocumentType, docType)
}

// List returns every document type in catalog order
func List() []models.DocumentType {
	types := make([]models.DocumentType, len(catalog))
	for i, t := range catalog {
		types[i] = t.Type
	}
	return types
}

// All returns a copy of every template in catalog order
func All() []Template {
	all := make([]Template, len(catalog))
	for i, t := range catalog {
		all[i] = t.clone()
	}
	return all
}

// Parse resolves an identifier, accepting legacy aliases
func Parse(raw string) (models.DocumentType, error) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := aliases[id]; ok {
		return alias, nil
	}
	docType := models.DocumentType(id)
	if _, err := Get(docType); err != nil {
		return "", err
	}
	return docType, nil
}

// SectionTitle turns a section name into its heading form: "dos_pedidos" -> "Dos Pedidos"
func SectionTitle(name string) string {
	parts := titleSplit.Split(strings.TrimSpace(name), -1)
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		words = append(words, string(unicode.ToUpper(r))+part[size:])
	}
	return strings.Join(words, " ")
}

// IsRequestsSection reports whether a section holds the final requests
func IsRequestsSection(name string) bool {
	return requestsPattern.MatchString(name)
}

// IsGroundsSection reports whether a section holds legal reasoning
func IsGroundsSection(name string) bool {
	return groundsPattern.MatchString(name)
}

func (t Template) clone() Template {
	t.Sections = append([]string(nil), t.Sections...)
	t.Required = append([]models.RequiredField(nil), t.Required...)
	return t
}
