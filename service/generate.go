package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pecajuridica-backend/models"
	"pecajuridica-backend/sections"
	"pecajuridica-backend/templates"
)

const (
	caseLawResults   = 8
	topResearch      = 3
	factPreviewRunes = 160
	originGeneration = "generation"
)

// GenerateRequest represents a request to generate a new piece
type GenerateRequest struct {
	DocumentType    models.DocumentType
	FactSummary     string
	Parties         []models.Party
	RequestedRelief string
	Documents       []string
	ClientID        string
	ProcessID       string
}

// GenerateResult represents the result of generating a piece
type GenerateResult struct {
	Piece     *models.Piece
	Research  []models.ResearchResult
	Citations []models.ArticleCitation
}

// GeneratePiece drafts a complete piece, completes its requests sections,
// verifies its citations and stores it
func (s *PieceService) GeneratePiece(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	tpl, err := templates.Get(req.DocumentType)
	if err != nil {
		return nil, err
	}
	if err := validate(tpl, req); err != nil {
		return nil, err
	}

	draft, err := s.generate(ctx, draftPrompt(tpl, req))
	if err != nil {
		return nil, generationError(err)
	}
	draft = s.completeRequests(ctx, tpl, req, draft)

	text, cites := s.verifier.Review(ctx, draft)

	query := fmt.Sprintf("jurisprudência sobre %s relacionada a %s", tpl.Title, truncateRunes(req.FactSummary, factPreviewRunes))
	research := s.search(ctx, query, caseLawDomains, caseLawResults)
	if len(research) > topResearch {
		research = research[:topResearch]
	}

	now := s.now()
	piece := &models.Piece{
		ID:           s.newID(),
		DocumentType: tpl.Type,
		Text:         text,
		Citations:    cites,
		ClientID:     optional(req.ClientID),
		ProcessID:    optional(req.ProcessID),
		Parties:      append(models.Parties(nil), req.Parties...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	piece.ClientName = inferClientName(piece.ClientID, piece.Parties)

	if err := s.pieces.Put(ctx, piece); err != nil {
		return nil, fmt.Errorf("failed to store piece: %w", err)
	}

	s.memorize(ctx, pieceMemory(piece, tpl, research, originGeneration))

	return &GenerateResult{
		Piece:     piece.Clone(),
		Research:  research,
		Citations: cites,
	}, nil
}

// validate lists every mandatory field that is absent, in template order
func validate(tpl templates.Template, req GenerateRequest) error {
	var missing []string
	for _, field := range tpl.Required {
		switch field {
		case models.FieldParties:
			if len(req.Parties) == 0 {
				missing = append(missing, string(field))
			}
		case models.FieldFactSummary:
			if strings.TrimSpace(req.FactSummary) == "" {
				missing = append(missing, string(field))
			}
		case models.FieldRequestedRelief:
			if strings.TrimSpace(req.RequestedRelief) == "" {
				missing = append(missing, string(field))
			}
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// completeRequests rewrites each requests section from the grounds already
// drafted. A failed pass keeps the drafted content.
func (s *PieceService) completeRequests(ctx context.Context, tpl templates.Template, req GenerateRequest, draft string) string {
	doc := sections.Parse(draft, tpl.Sections)

	var grounds []string
	for _, name := range tpl.Sections {
		if !templates.IsGroundsSection(name) {
			continue
		}
		if sec, ok := doc.Section(name); ok {
			if content := doc.Content(sec); content != "" {
				grounds = append(grounds, content)
			}
		}
	}
	fundamentals := strings.Join(grounds, "\n\n")

	for _, name := range tpl.Sections {
		if !templates.IsRequestsSection(name) {
			continue
		}
		sec, ok := doc.Section(name)
		if !ok {
			log.Printf("Warning: requests section %s not found in draft", name)
			continue
		}

		prompt := requestsPrompt(tpl, name, req.FactSummary, fundamentals, req.RequestedRelief, doc.Content(sec))
		content, err := s.generate(ctx, prompt)
		if err != nil {
			log.Printf("Warning: failed to complete section %s: %v", name, err)
			continue
		}
		content = sections.CleanContent(sec, content)
		if content == "" {
			log.Printf("Warning: empty completion for section %s", name)
			continue
		}

		doc = sections.Parse(strings.Join(sections.Replace(doc.Lines, sec, content), "\n"), tpl.Sections)
	}
	return doc.Text()
}
