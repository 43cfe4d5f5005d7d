package models

// DocumentType names a kind of legal filing
type DocumentType string

const (
	DocumentTypePetition            DocumentType = "petition"
	DocumentTypeAnswer              DocumentType = "answer"
	DocumentTypeReply               DocumentType = "reply"
	DocumentTypeUrgentRelief        DocumentType = "urgent_relief"
	DocumentTypeInterlocutoryAppeal DocumentType = "interlocutory_appeal"
	DocumentTypeCaseManagement      DocumentType = "case_management"
	DocumentTypeEvidenceRequest     DocumentType = "evidence_request"
	DocumentTypeInterlocutoryMotion DocumentType = "interlocutory_motion"
	DocumentTypeStatement           DocumentType = "statement"
	DocumentTypeExpertQuestions     DocumentType = "expert_questions"
	DocumentTypeClosingBrief        DocumentType = "closing_brief"
	DocumentTypeAppeal              DocumentType = "appeal"
)

// RequiredField is an input field a template may mark as mandatory
type RequiredField string

const (
	FieldParties         RequiredField = "parties"
	FieldFactSummary     RequiredField = "factSummary"
	FieldRequestedRelief RequiredField = "requestedRelief"
)

// PartyRole is the procedural position of a party
type PartyRole string

const (
	RoleClaimant   PartyRole = "claimant"
	RoleRespondent PartyRole = "respondent"
	RoleThirdParty PartyRole = "third_party"
)

// Valid reports whether the role is one of the known roles
func (r PartyRole) Valid() bool {
	switch r {
	case RoleClaimant, RoleRespondent, RoleThirdParty:
		return true
	}
	return false
}

// Label returns the Portuguese label used inside generated filings
func (r PartyRole) Label() string {
	switch r {
	case RoleClaimant:
		return "AUTOR"
	case RoleRespondent:
		return "RÉU"
	case RoleThirdParty:
		return "TERCEIRO"
	}
	return string(r)
}
