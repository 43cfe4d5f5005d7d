package handlers

import (
	"encoding/json"
	"regexp"
	"strings"

	"pecajuridica-backend/models"
)

var documentSeparator = regexp.MustCompile(`[,\n]`)

// PartyRequest is a party as received from clients
type PartyRequest struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	Qualification string `json:"qualification"`
}

var roleAliases = map[string]models.PartyRole{
	"claimant":    models.RoleClaimant,
	"plaintiff":   models.RoleClaimant,
	"autor":       models.RoleClaimant,
	"respondent":  models.RoleRespondent,
	"defendant":   models.RoleRespondent,
	"reu":         models.RoleRespondent,
	"réu":         models.RoleRespondent,
	"third_party": models.RoleThirdParty,
	"third-party": models.RoleThirdParty,
	"terceiro":    models.RoleThirdParty,
}

var memoryTypeAliases = map[string]models.MemoryType{
	"peça":           models.MemoryTypePiece,
	"peca":           models.MemoryTypePiece,
	"topico":         models.MemoryTypeTopic,
	"tópico":         models.MemoryTypeTopic,
	"jurisprudencia": models.MemoryTypeCaseLaw,
	"jurisprudência": models.MemoryTypeCaseLaw,
	"doutrina":       models.MemoryTypeDoctrine,
	"artigo":         models.MemoryTypeArticle,
	"tese":           models.MemoryTypeThesis,
}

// sanitize trims s; blank strings are treated as absent
func sanitize(s string) string {
	return strings.TrimSpace(s)
}

// parseParties drops parties without a name or with an unknown role
func parseParties(raw []PartyRequest) []models.Party {
	parties := make([]models.Party, 0, len(raw))
	for _, p := range raw {
		name := sanitize(p.Name)
		role, ok := roleAliases[strings.ToLower(sanitize(p.Role))]
		if name == "" || !ok {
			continue
		}
		parties = append(parties, models.Party{
			Name:          name,
			Role:          role,
			Qualification: sanitize(p.Qualification),
		})
	}
	return parties
}

// normalizeDocumentList accepts a JSON array of strings or a single comma
// or newline separated string
func normalizeDocumentList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var values []string
	var list []string
	var single string
	switch {
	case json.Unmarshal(raw, &list) == nil:
		values = list
	case json.Unmarshal(raw, &single) == nil:
		values = documentSeparator.Split(single, -1)
	default:
		return nil
	}

	var documents []string
	for _, v := range values {
		if v = sanitize(v); v != "" {
			documents = append(documents, v)
		}
	}
	return documents
}

// parseMemoryType accepts memory types and their Portuguese names; an empty
// value means no filter
func parseMemoryType(raw string) (models.MemoryType, bool) {
	value := strings.ToLower(sanitize(raw))
	if value == "" {
		return "", true
	}
	if t, ok := memoryTypeAliases[value]; ok {
		return t, true
	}
	t := models.MemoryType(value)
	return t, t.Valid()
}
