package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pecajuridica-backend/citations"
	"pecajuridica-backend/models"
	"pecajuridica-backend/repository"
)

const storedPrefix = `# PETIÇÃO INICIAL

## Preâmbulo
Excelentíssimo Senhor Doutor Juiz.

## Fundamentação Jurídica
Conforme o Art. 5 [⚠ não confirmado] da Constituição.

## 5. DOS PEDIDOS
`

const storedText = storedPrefix + `a) a procedência.

## Valor da Causa
R$ 1.000,00.`

func seededService(t *testing.T, gen *fakeGenerator, search *fakeSearcher, mem *fakeMemory) *PieceService {
	t.Helper()
	store := repository.NewMemoryPieceStore()
	clientID := "cliente-7"
	require.NoError(t, store.Put(context.Background(), &models.Piece{
		ID:           "piece-9",
		DocumentType: models.DocumentTypePetition,
		Text:         storedText,
		Citations:    models.Citations{{Article: "Art. 5", Key: "art5"}},
		ClientName:   clientID,
		ClientID:     &clientID,
		Parties:      sampleParties(),
		CreatedAt:    fixedNow.Add(-time.Hour),
		UpdatedAt:    fixedNow.Add(-time.Hour),
	}))

	opts := []PieceServiceOption{
		PieceWithStore(store),
		PieceWithGenerator(gen),
		PieceWithClock(func() time.Time { return fixedNow }),
	}
	if search != nil {
		opts = append(opts, PieceWithResearcher(search))
	}
	if mem != nil {
		opts = append(opts, PieceWithMemory(mem))
	}
	return NewPieceService(opts...)
}

func TestRefineStoredTopicMissingPiece(t *testing.T) {
	gen := &fakeGenerator{rewrite: "novo"}
	search := &fakeSearcher{results: sampleResults(1)}
	mem := &fakeMemory{}
	svc := seededService(t, gen, search, mem)

	_, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{
		PieceID:    "abc-123",
		TopicID:    "dos_pedidos",
		NewContent: "fato novo",
	})
	assert.True(t, errors.Is(err, ErrPieceNotFound))
	svc.Wait()

	assert.Equal(t, 0, gen.calls())
	assert.Equal(t, 0, search.calls())
	assert.Equal(t, 0, mem.calls())
}

func TestRefineStoredTopicUnknownTopic(t *testing.T) {
	gen := &fakeGenerator{rewrite: "novo"}
	svc := seededService(t, gen, nil, nil)

	_, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "dos_fatos"})
	assert.True(t, errors.Is(err, ErrTopicNotFound))
	assert.Equal(t, 0, gen.calls())
}

func TestRefineStoredTopic(t *testing.T) {
	gen := &fakeGenerator{rewrite: "1. A procedência total, nos termos do art. 319 do CPC."}
	search := &fakeSearcher{results: sampleResults(2)}
	mem := &fakeMemory{records: []models.MemoryRecord{{Text: "Tese anterior sobre vício do produto."}}}
	svc := seededService(t, gen, search, mem)

	result, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{
		PieceID:      "piece-9",
		TopicID:      "dos_pedidos",
		NewContent:   "A ré ofereceu acordo em audiência.",
		MemoryFilter: models.MemoryTypeThesis,
	})
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "DOS PEDIDOS", result.Section)
	assert.Equal(t, "1. A procedência total, nos termos do art. 319 "+citations.MarkerConfirmed+" do CPC.", result.TopicText)
	assert.Equal(t, []string{"Tese anterior sobre vício do produto."}, result.RelatedMemory)
	assert.Len(t, result.Research, 2)

	text := result.Piece.Text
	assert.True(t, strings.HasPrefix(citations.StripMarkers(text), citations.StripMarkers(storedPrefix)))
	assert.Contains(t, text, "Conforme o Art. 5 "+citations.MarkerConfirmed+" da Constituição.")
	assert.True(t, strings.HasSuffix(text, "do CPC.\n\n## Valor da Causa\nR$ 1.000,00."))

	require.Len(t, result.Citations, 2)
	assert.Equal(t, "Art. 319", result.Citations[1].Article)
	assert.Equal(t, fixedNow, result.Piece.UpdatedAt)
	assert.Equal(t, fixedNow.Add(-time.Hour), result.Piece.CreatedAt)

	stored, err := svc.GetPiece(context.Background(), "piece-9")
	require.NoError(t, err)
	assert.Equal(t, text, stored.Text)
	assert.Len(t, stored.Citations, 2)

	rewrite := gen.prompts[0]
	assert.Equal(t, rewriteSystem, rewrite.System)
	assert.Contains(t, rewrite.Text, `revisando o tópico "DOS PEDIDOS" de uma peça processual do tipo Petição Inicial`)
	assert.Contains(t, rewrite.Text, "Conteúdo atual do tópico:\na) a procedência.")
	assert.Contains(t, rewrite.Text, "Novas informações fornecidas:\nA ré ofereceu acordo em audiência.")
	assert.Contains(t, rewrite.Text, "Fonte: https://stj.jus.br/resp/1")

	require.NotEmpty(t, mem.queries)
	assert.Equal(t, models.MemoryTypeThesis, mem.queries[0].Type)
	assert.Equal(t, "cliente-7", mem.queries[0].ClientID)
	assert.Equal(t, DefaultTopK, mem.queries[0].TopK)

	insights := mem.byType(models.MemoryTypeInsight)
	require.Len(t, insights, 1)
	assert.Equal(t, "new_information", insights[0].Metadata["origin"])
	assert.Equal(t, "dos_pedidos", insights[0].Metadata["section"])

	topics := mem.byType(models.MemoryTypeTopic)
	require.Len(t, topics, 4)
	for _, item := range topics {
		assert.Equal(t, "refinement", item.Metadata["origin"])
	}
}

func TestRefineStoredTopicRepeatedHeadingKeepsOutline(t *testing.T) {
	gen := &fakeGenerator{rewrite: "## Dos Pedidos\n1. A procedência total."}
	svc := seededService(t, gen, nil, nil)

	result, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "dos_pedidos"})
	require.NoError(t, err)
	assert.Equal(t, "1. A procedência total.", result.TopicText)
	assert.Contains(t, result.Piece.Text, "## 5. DOS PEDIDOS\n1. A procedência total.\n\n## Valor da Causa")
	assert.Equal(t, 1, strings.Count(strings.ToLower(result.Piece.Text), "dos pedidos"))

	gen.rewrite = "1. A procedência total e a condenação em custas."
	result, err = svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "dos_pedidos"})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1].Text, "Conteúdo atual do tópico:\n1. A procedência total.")
	assert.Contains(t, result.Piece.Text, "## 5. DOS PEDIDOS\n1. A procedência total e a condenação em custas.\n\n## Valor da Causa")
	assert.NotContains(t, result.Piece.Text, "1. A procedência total.\n")
}

func TestRefineStoredTopicResolvesByHeading(t *testing.T) {
	svc := seededService(t, &fakeGenerator{rewrite: "Novo preâmbulo."}, nil, nil)

	result, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "Preâmbulo"})
	require.NoError(t, err)
	assert.Contains(t, result.Piece.Text, "## Preâmbulo\nNovo preâmbulo.\n\n## Fundamentação Jurídica")
}

func TestRefineStoredTopicEmptyRewriteKeepsContent(t *testing.T) {
	svc := seededService(t, &fakeGenerator{rewrite: "  "}, nil, nil)

	result, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "dos_pedidos"})
	require.NoError(t, err)
	assert.Equal(t, storedText, result.Piece.Text)
}

func TestRefineStoredTopicReplacesParties(t *testing.T) {
	svc := seededService(t, &fakeGenerator{rewrite: "Texto."}, nil, nil)

	result, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{
		PieceID:   "piece-9",
		TopicID:   "valor_da_causa",
		ClientID:  "cliente-8",
		ProcessID: "0001234-56.2026.8.26.0100",
		Parties:   []models.Party{{Name: "João Lima", Role: models.RoleClaimant}},
	})
	require.NoError(t, err)

	piece := result.Piece
	require.Len(t, piece.Parties, 1)
	assert.Equal(t, "João Lima", piece.Parties[0].Name)
	assert.Equal(t, "cliente-8", piece.ClientName)
	require.NotNil(t, piece.ProcessID)
	assert.Equal(t, "0001234-56.2026.8.26.0100", *piece.ProcessID)
}

func TestRefineStoredTopicGenerationFailure(t *testing.T) {
	svc := seededService(t, &fakeGenerator{rewriteErr: errors.New("model overloaded")}, nil, nil)

	_, err := svc.RefineStoredTopic(context.Background(), RefineStoredTopicRequest{PieceID: "piece-9", TopicID: "dos_pedidos"})
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	stored, err := svc.GetPiece(context.Background(), "piece-9")
	require.NoError(t, err)
	assert.Equal(t, storedText, stored.Text)
}

func TestRefineTopic(t *testing.T) {
	gen := &fakeGenerator{rewrite: "Presentes os requisitos do art. 300 do CPC."}
	mem := &fakeMemory{}
	svc := newTestService(gen, &fakeSearcher{}, mem)

	result, err := svc.RefineTopic(context.Background(), RefineTopicRequest{
		DocumentType:   models.DocumentTypeUrgentRelief,
		Topic:          "periculum_in_mora",
		CurrentContent: "Há risco de dano.",
		ClientID:       "cliente-1",
	})
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "Presentes os requisitos do art. 300 "+citations.MarkerUnconfirmed+" do CPC.", result.Text)
	require.Len(t, result.Citations, 1)
	assert.Contains(t, gen.prompts[0].Text, `"Periculum In Mora"`)

	topics := mem.byType(models.MemoryTypeTopic)
	require.Len(t, topics, 1)
	assert.Equal(t, "topic_refinement", topics[0].Metadata["origin"])
	assert.Equal(t, "cliente-1", topics[0].ClientID)
}

func TestRefineTopicValidation(t *testing.T) {
	svc := newTestService(&fakeGenerator{}, nil, nil)

	_, err := svc.RefineTopic(context.Background(), RefineTopicRequest{DocumentType: models.DocumentTypeAppeal})
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"topic", "currentContent"}, missing.Fields)
}

func TestRefineText(t *testing.T) {
	gen := &fakeGenerator{rewrite: "Texto aprimorado."}
	mem := &fakeMemory{records: []models.MemoryRecord{{Text: "contexto"}}}
	svc := newTestService(gen, nil, mem)

	result, err := svc.RefineText(context.Background(), RefineTextRequest{Text: "texto original", Instructions: "Resuma."})
	require.NoError(t, err)
	assert.Equal(t, "Texto aprimorado.", result.Text)
	assert.Equal(t, []string{"contexto"}, result.RelatedMemory)

	prompt := gen.prompts[0]
	assert.True(t, strings.HasPrefix(prompt.Text, "Resuma.\n\nContexto adicional relevante:\ncontexto"))
	assert.Equal(t, freeformSystem, prompt.System)

	_, err = svc.RefineText(context.Background(), RefineTextRequest{Text: " "})
	assert.True(t, errors.Is(err, ErrMissingRequiredFields))
}

func TestPieceLocksSerialize(t *testing.T) {
	var locks pieceLocks
	unlock := locks.lock("piece-1")

	acquired := make(chan struct{})
	go func() {
		release := locks.lock("piece-1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second refinement acquired the lock while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	other := locks.lock("piece-2")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was never released")
	}

	assert.Eventually(t, func() bool {
		locks.mu.Lock()
		defer locks.mu.Unlock()
		return len(locks.locks) == 0
	}, time.Second, 10*time.Millisecond)
}
