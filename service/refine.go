package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pecajuridica-backend/citations"
	"pecajuridica-backend/models"
	"pecajuridica-backend/sections"
	"pecajuridica-backend/templates"
)

const (
	originRefinement      = "refinement"
	originNewInformation  = "new_information"
	originTopicRefinement = "topic_refinement"
)

// RefineStoredTopicRequest represents a rewrite of one section of a stored piece
type RefineStoredTopicRequest struct {
	PieceID      string
	TopicID      string
	NewContent   string
	ContentType  models.MemoryType
	MemoryFilter models.MemoryType
	ResearchHint string
	ClientID     string
	ProcessID    string
	Parties      []models.Party
	TopK         int
	Metadata     map[string]interface{}
}

// RefineStoredTopicResult represents the refined topic and updated piece
type RefineStoredTopicResult struct {
	Piece         *models.Piece
	Section       string
	TopicText     string
	RelatedMemory []string
	Research      []models.ResearchResult
	Citations     []models.ArticleCitation
}

// RefineStoredTopic rewrites one section of a stored piece and splices it
// back, leaving every other line untouched. Refinements of the same piece
// are serialized.
func (s *PieceService) RefineStoredTopic(ctx context.Context, req RefineStoredTopicRequest) (*RefineStoredTopicResult, error) {
	unlock := s.locks.lock(req.PieceID)
	defer unlock()

	piece, err := s.loadPiece(ctx, req.PieceID)
	if err != nil {
		return nil, err
	}
	tpl, err := templates.Get(piece.DocumentType)
	if err != nil {
		return nil, err
	}

	doc := sections.Parse(citations.StripMarkers(piece.Text), tpl.Sections)
	sec, ok := doc.Resolve(req.TopicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, req.TopicID)
	}
	topic := sec.Heading
	current := doc.Content(sec)

	if req.ClientID != "" {
		piece.ClientID = optional(req.ClientID)
	}
	if req.ProcessID != "" {
		piece.ProcessID = optional(req.ProcessID)
	}
	if len(req.Parties) > 0 {
		piece.Parties = append(models.Parties(nil), req.Parties...)
	}
	clientID, processID := deref(piece.ClientID), deref(piece.ProcessID)

	newContent := strings.TrimSpace(req.NewContent)
	if newContent != "" && s.memory != nil {
		meta := map[string]interface{}{}
		for k, v := range req.Metadata {
			meta[k] = v
		}
		meta["pieceId"] = piece.ID
		meta["documentType"] = string(piece.DocumentType)
		meta["section"] = sec.BlockName
		meta["origin"] = originNewInformation

		contentType := req.ContentType
		if !contentType.Valid() {
			contentType = models.MemoryTypeInsight
		}
		item := models.MemoryItem{Text: newContent, Type: contentType, ClientID: clientID, ProcessID: processID, Metadata: meta}
		if err := s.memory.Write(ctx, []models.MemoryItem{item}); err != nil {
			log.Printf("Warning: failed to store new information for piece %s: %v", piece.ID, err)
		}
	}

	related := s.relatedMemory(ctx, current, models.MemoryQuery{
		TopK:      req.TopK,
		Type:      req.MemoryFilter,
		ClientID:  clientID,
		ProcessID: processID,
	})

	research := s.search(ctx, researchQuery(topic, tpl.Title, req.ResearchHint, current), caseLawDomains, researchLimit)

	rewritten, err := s.generate(ctx, rewritePrompt(rewriteInput{
		typeTitle:  tpl.Title,
		topic:      topic,
		current:    current,
		memory:     related,
		newContent: newContent,
		research:   research,
	}))
	if err != nil {
		return nil, generationError(err)
	}
	rewritten = sections.CleanContent(sec, rewritten)
	if rewritten == "" {
		rewritten = current
	}

	full := strings.Join(sections.Replace(doc.Lines, sec, rewritten), "\n")
	text, cites := s.verifier.Review(ctx, full)

	piece.Text = text
	piece.Citations = cites
	piece.ClientName = inferClientName(piece.ClientID, piece.Parties)
	piece.UpdatedAt = s.now()
	if err := s.pieces.Put(ctx, piece); err != nil {
		return nil, fmt.Errorf("failed to store piece: %w", err)
	}

	s.memorize(ctx, pieceMemory(piece, tpl, research, originRefinement))

	return &RefineStoredTopicResult{
		Piece:         piece.Clone(),
		Section:       topic,
		TopicText:     citations.Annotate(rewritten, cites),
		RelatedMemory: related,
		Research:      research,
		Citations:     cites,
	}, nil
}

// RefineTopicRequest represents a rewrite of a passage without a stored piece
type RefineTopicRequest struct {
	DocumentType   models.DocumentType
	Topic          string
	CurrentContent string
	NewContent     string
	ResearchHint   string
	MemoryFilter   models.MemoryType
	ClientID       string
	ProcessID      string
	TopK           int
}

// RefineTopicResult represents a rewritten passage
type RefineTopicResult struct {
	Text          string
	RelatedMemory []string
	Research      []models.ResearchResult
	Citations     []models.ArticleCitation
}

// RefineTopic rewrites a single passage for a document type and memorizes it
func (s *PieceService) RefineTopic(ctx context.Context, req RefineTopicRequest) (*RefineTopicResult, error) {
	tpl, err := templates.Get(req.DocumentType)
	if err != nil {
		return nil, err
	}
	var missing []string
	if strings.TrimSpace(req.Topic) == "" {
		missing = append(missing, "topic")
	}
	if strings.TrimSpace(req.CurrentContent) == "" {
		missing = append(missing, "currentContent")
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	current := strings.TrimSpace(citations.StripMarkers(req.CurrentContent))
	topic := templates.SectionTitle(req.Topic)
	newContent := strings.TrimSpace(req.NewContent)

	related := s.relatedMemory(ctx, current, models.MemoryQuery{
		TopK:      req.TopK,
		Type:      req.MemoryFilter,
		ClientID:  req.ClientID,
		ProcessID: req.ProcessID,
	})
	research := s.search(ctx, researchQuery(topic, tpl.Title, req.ResearchHint, current), caseLawDomains, researchLimit)

	rewritten, err := s.generate(ctx, rewritePrompt(rewriteInput{
		typeTitle:  tpl.Title,
		topic:      topic,
		current:    current,
		memory:     related,
		newContent: newContent,
		research:   research,
	}))
	if err != nil {
		return nil, generationError(err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		rewritten = current
	}

	text, cites := s.verifier.Review(ctx, rewritten)

	s.memorize(ctx, []models.MemoryItem{{
		Text:      rewritten,
		Type:      models.MemoryTypeTopic,
		ClientID:  req.ClientID,
		ProcessID: req.ProcessID,
		Metadata: map[string]interface{}{
			"documentType": string(tpl.Type),
			"section":      sections.NormalizeKey(req.Topic),
			"heading":      topic,
			"origin":       originTopicRefinement,
		},
	}})

	return &RefineTopicResult{
		Text:          text,
		RelatedMemory: related,
		Research:      research,
		Citations:     cites,
	}, nil
}

// RefineTextRequest represents a freeform rewrite
type RefineTextRequest struct {
	Text         string
	Instructions string
	MemoryFilter models.MemoryType
	ClientID     string
	ProcessID    string
	TopK         int
}

// RefineTextResult represents a freeform rewrite with its verified citations
type RefineTextResult struct {
	Text          string
	RelatedMemory []string
	Citations     []models.ArticleCitation
}

// RefineText rewrites arbitrary text grounded in related memory
func (s *PieceService) RefineText(ctx context.Context, req RefineTextRequest) (*RefineTextResult, error) {
	original := strings.TrimSpace(citations.StripMarkers(req.Text))
	if original == "" {
		return nil, &MissingFieldsError{Fields: []string{"text"}}
	}

	related := s.relatedMemory(ctx, original, models.MemoryQuery{
		TopK:      req.TopK,
		Type:      req.MemoryFilter,
		ClientID:  req.ClientID,
		ProcessID: req.ProcessID,
	})

	rewritten, err := s.generate(ctx, freeformPrompt(original, strings.TrimSpace(req.Instructions), related))
	if err != nil {
		return nil, generationError(err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		rewritten = original
	}

	text, cites := s.verifier.Review(ctx, rewritten)
	return &RefineTextResult{
		Text:          text,
		RelatedMemory: related,
		Citations:     cites,
	}, nil
}

// researchQuery combines the topic, the document type and a hint, falling
// back to the start of the current content
func researchQuery(topic, typeTitle, hint, current string) string {
	focus := strings.TrimSpace(hint)
	if focus == "" {
		focus = truncateRunes(current, factPreviewRunes)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", topic, typeTitle, focus))
}
