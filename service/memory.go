package service

import (
	"context"
	"log"
	"strings"
	"time"

	"pecajuridica-backend/citations"
	"pecajuridica-backend/models"
	"pecajuridica-backend/sections"
	"pecajuridica-backend/templates"

	"golang.org/x/sync/errgroup"
)

const (
	memoryWriteTimeout  = 30 * time.Second
	memoryWriteParallel = 4

	DefaultTopK   = 5
	MaxTopK       = 20
	DefaultLimit  = 20
	MaxLimit      = 100
	researchLimit = 5
)

// caseLawDomains restricts case-law research to courts and legal press
var caseLawDomains = []string{
	"stj.jus.br",
	"jusbrasil.com.br",
	"conjur.com.br",
}

// QueryMemoryRequest represents a similarity query over stored memory
type QueryMemoryRequest struct {
	Query     string
	Type      models.MemoryType
	ClientID  string
	ProcessID string
	TopK      int
}

// ListMemoryRequest lists memory stored for a client or a process
type ListMemoryRequest struct {
	ClientID  string
	ProcessID string
	Limit     int
}

// QueryMemory returns stored passages related to the query text
func (s *PieceService) QueryMemory(ctx context.Context, req QueryMemoryRequest) ([]models.MemoryRecord, error) {
	if s.memory == nil || strings.TrimSpace(req.Query) == "" {
		return []models.MemoryRecord{}, nil
	}
	records, err := s.memory.Query(ctx, req.Query, models.MemoryQuery{
		TopK:      clamp(req.TopK, DefaultTopK, MaxTopK),
		Type:      req.Type,
		ClientID:  req.ClientID,
		ProcessID: req.ProcessID,
	})
	if err != nil {
		log.Printf("Warning: memory query failed: %v", err)
		return []models.MemoryRecord{}, nil
	}
	return records, nil
}

// ListMemory returns the most recent memory stored for a client or process
func (s *PieceService) ListMemory(ctx context.Context, req ListMemoryRequest) ([]models.MemoryRecord, error) {
	if s.memory == nil || (req.ClientID == "" && req.ProcessID == "") {
		return []models.MemoryRecord{}, nil
	}
	records, err := s.memory.List(ctx, models.MemoryFilter{
		ClientID:  req.ClientID,
		ProcessID: req.ProcessID,
		Limit:     clamp(req.Limit, DefaultLimit, MaxLimit),
	})
	if err != nil {
		log.Printf("Warning: memory listing failed: %v", err)
		return []models.MemoryRecord{}, nil
	}
	return records, nil
}

// Wait blocks until every background memory write has settled
func (s *PieceService) Wait() {
	s.pending.Wait()
}

// memorize writes items in the background. Each item is an independent
// write; a failure is logged and never aborts the others.
func (s *PieceService) memorize(ctx context.Context, items []models.MemoryItem) {
	if s.memory == nil || len(items) == 0 {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), memoryWriteTimeout)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(memoryWriteParallel)
		for _, item := range items {
			g.Go(func() error {
				if err := s.memory.Write(ctx, []models.MemoryItem{item}); err != nil {
					log.Printf("Warning: failed to memorize %s item: %v", item.Type, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// relatedMemory returns passages related to text; failures degrade to none
func (s *PieceService) relatedMemory(ctx context.Context, text string, q models.MemoryQuery) []string {
	if s.memory == nil || strings.TrimSpace(text) == "" {
		return []string{}
	}
	q.TopK = clamp(q.TopK, DefaultTopK, MaxTopK)
	records, err := s.memory.Query(ctx, text, q)
	if err != nil {
		log.Printf("Warning: failed to query related memory: %v", err)
		return []string{}
	}
	passages := make([]string, 0, len(records))
	for _, r := range records {
		if t := strings.TrimSpace(r.Text); t != "" {
			passages = append(passages, t)
		}
	}
	return passages
}

// search queries the research gateway; failures degrade to no results
func (s *PieceService) search(ctx context.Context, query string, domains []string, maxResults int) []models.ResearchResult {
	if s.research == nil {
		return []models.ResearchResult{}
	}
	results, err := s.research.Search(ctx, query, domains, maxResults)
	if err != nil {
		log.Printf("Warning: research failed for %q: %v", query, err)
		return []models.ResearchResult{}
	}
	if results == nil {
		return []models.ResearchResult{}
	}
	return results
}

// pieceMemory derives the memory fan-out of a piece: one item per template
// section with content, one per research result and one per citation
func pieceMemory(piece *models.Piece, tpl templates.Template, research []models.ResearchResult, origin string) []models.MemoryItem {
	clientID, processID := deref(piece.ClientID), deref(piece.ProcessID)
	tags := func(extra map[string]interface{}) map[string]interface{} {
		meta := map[string]interface{}{
			"pieceId":      piece.ID,
			"documentType": string(piece.DocumentType),
			"clientName":   piece.ClientName,
			"origin":       origin,
		}
		for k, v := range extra {
			meta[k] = v
		}
		return meta
	}

	var items []models.MemoryItem
	doc := sections.Parse(citations.StripMarkers(piece.Text), tpl.Sections)
	for _, name := range tpl.Sections {
		sec, ok := doc.Section(name)
		if !ok {
			continue
		}
		content := doc.Content(sec)
		if content == "" {
			continue
		}
		items = append(items, models.MemoryItem{
			Text:      content,
			Type:      models.MemoryTypeTopic,
			ClientID:  clientID,
			ProcessID: processID,
			Metadata:  tags(map[string]interface{}{"section": name, "heading": sec.Heading}),
		})
	}

	for _, r := range research {
		text := strings.TrimSpace(strings.Join(nonEmpty(r.Title, r.Snippet), "\n"))
		if text == "" {
			continue
		}
		items = append(items, models.MemoryItem{
			Text:      text,
			Type:      models.MemoryTypeCaseLaw,
			ClientID:  clientID,
			ProcessID: processID,
			Metadata:  tags(map[string]interface{}{"url": r.URL}),
		})
	}

	for _, c := range piece.Citations {
		status := "não confirmado"
		if c.Confirmed {
			status = "confirmado"
		}
		meta := map[string]interface{}{"article": c.Article, "confirmed": c.Confirmed}
		if c.Reference != nil {
			meta["reference"] = *c.Reference
		}
		items = append(items, models.MemoryItem{
			Text:      c.Article + " (" + status + ")",
			Type:      models.MemoryTypeArticle,
			ClientID:  clientID,
			ProcessID: processID,
			Metadata:  tags(meta),
		})
	}
	return items
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, fallback, max int) int {
	if v <= 0 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
