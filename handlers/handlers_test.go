package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pecajuridica-backend/docx"
	"pecajuridica-backend/gateway"
	"pecajuridica-backend/models"
	"pecajuridica-backend/repository"
	"pecajuridica-backend/service"
	"pecajuridica-backend/storage"
)

const draft = `## Preâmbulo
Excelentíssimo Senhor Juiz.

## Dos Fatos
Fatos narrados.

## Fundamentação Jurídica
Nos termos do art. 186 do Código Civil.

## Jurisprudência
Precedentes.

## Dos Pedidos
a) procedência.

## Valor da Causa
R$ 5.000,00.`

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(_ context.Context, p gateway.Prompt) (string, error) {
	if g.err == nil && strings.Contains(p.System, "pedidos finais") {
		return "", nil
	}
	return g.text, g.err
}

type stubMemory struct {
	records []models.MemoryRecord
}

func (m *stubMemory) Write(context.Context, []models.MemoryItem) error { return nil }

func (m *stubMemory) Query(context.Context, string, models.MemoryQuery) ([]models.MemoryRecord, error) {
	return m.records, nil
}

func (m *stubMemory) List(context.Context, models.MemoryFilter) ([]models.MemoryRecord, error) {
	return m.records, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Fields  []string `json:"fields"`
	} `json:"error"`
}

func setupRouter(t *testing.T, gen service.Generator) (*gin.Engine, *service.PieceService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryPieceStore()
	pieces := service.NewPieceService(
		service.PieceWithStore(store),
		service.PieceWithGenerator(gen),
		service.PieceWithMemory(&stubMemory{records: []models.MemoryRecord{{Text: "registro"}}}),
		service.PieceWithIDGenerator(func() string { return "piece-1" }),
	)
	t.Cleanup(pieces.Wait)

	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	builder := docx.NewBuilder()
	builder.TempDir = t.TempDir()
	exports := service.NewExportService(
		service.ExportWithStore(store),
		service.ExportWithBuilder(builder),
		service.ExportWithStorage(archive),
	)

	return NewRouter(NewPieceHandler(pieces), NewMemoryHandler(pieces), NewExportHandler(exports)), pieces
}

func do(t *testing.T, r http.Handler, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func generateBody() gin.H {
	return gin.H{
		"document_type": "peticao_inicial",
		"fact_summary":  "Cobrança indevida em fatura.",
		"parties": []gin.H{
			{"name": "Ana Lima", "role": "autor"},
			{"name": "", "role": "reu"},
			{"name": "Banco S.A.", "role": "bystander"},
		},
		"documents": "fatura, contrato\nprotocolo",
	}
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{text: draft})
	w, _ := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTemplates(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{text: draft})
	w, env := do(t, r, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		DocumentTypes []string `json:"document_types"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.DocumentTypes, 12)
	assert.Equal(t, "petition", data.DocumentTypes[0])
}

func TestGeneratePiece(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{text: draft})
	w, env := do(t, r, http.MethodPost, "/api/pieces", generateBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var data struct {
		ID         string                   `json:"id"`
		ClientName string                   `json:"client_name"`
		Citations  []models.ArticleCitation `json:"citations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "piece-1", data.ID)
	assert.Equal(t, "Ana Lima", data.ClientName)
	require.Len(t, data.Citations, 1)
	assert.Equal(t, "Art. 186", data.Citations[0].Article)
	assert.False(t, data.Citations[0].Confirmed)

	w, env = do(t, r, http.MethodGet, "/api/pieces/piece-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var piece models.Piece
	require.NoError(t, json.Unmarshal(env.Data, &piece))
	require.Len(t, piece.Parties, 1, "parties without a name or with an unknown role are dropped")
}

func TestGeneratePieceErrors(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{err: errors.New("quota")})

	w, env := do(t, r, http.MethodPost, "/api/pieces", gin.H{"fact_summary": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/api/pieces", gin.H{"document_type": "mandado"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_DOCUMENT_TYPE", env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/api/pieces", gin.H{"document_type": "petition", "fact_summary": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", env.Error.Code)
	assert.Equal(t, []string{"parties"}, env.Error.Fields)

	w, env = do(t, r, http.MethodPost, "/api/pieces", generateBody())
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "GENERATION_FAILED", env.Error.Code)
}

func TestRefineStoredTopic(t *testing.T) {
	gen := &stubGenerator{text: draft}
	r, _ := setupRouter(t, gen)
	w, _ := do(t, r, http.MethodPost, "/api/pieces", generateBody())
	require.Equal(t, http.StatusCreated, w.Code)

	gen.text = "1. Restituição em dobro."
	w, env := do(t, r, http.MethodPost, "/api/pieces/piece-1/topics/dos_pedidos/refine", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		TopicText string `json:"topic_text"`
		FullText  string `json:"full_text"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "1. Restituição em dobro.", data.TopicText)
	assert.Contains(t, data.FullText, "## Dos Pedidos\n1. Restituição em dobro.\n\n## Valor da Causa")

	w, env = do(t, r, http.MethodPost, "/api/pieces/abc-123/topics/dos_pedidos/refine", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PIECE_NOT_FOUND", env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/api/pieces/piece-1/topics/conclusao/refine", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TOPIC_NOT_FOUND", env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/api/pieces/piece-1/topics/dos_pedidos/refine", gin.H{"memory_type": "boato"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestRefineTopicAndText(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{text: "Texto reescrito."})

	w, env := do(t, r, http.MethodPost, "/api/topics/refine", gin.H{
		"document_type":   "appeal",
		"topic":           "reforma_pleiteada",
		"current_content": "Texto atual.",
		"memory_type":     "jurisprudencia",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	w, env = do(t, r, http.MethodPost, "/api/topics/refine", gin.H{"document_type": "appeal", "topic": "pedidos"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"currentContent"}, env.Error.Fields)

	w, env = do(t, r, http.MethodPost, "/api/text/refine", gin.H{"text": "original"})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Text          string   `json:"text"`
		RelatedMemory []string `json:"related_memory"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Texto reescrito.", data.Text)
	assert.Equal(t, []string{"registro"}, data.RelatedMemory)
}

func TestQueryMemory(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{})

	w, _ := do(t, r, http.MethodGet, "/api/memory?q=dano&top_k=3&type=tese", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/memory?q=dano&top_k=21", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/api/memory", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/memory/clients/cliente-1?limit=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.MemoryRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 1)

	w, _ = do(t, r, http.MethodGet, "/api/memory/processes/0001", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportFlow(t *testing.T) {
	r, _ := setupRouter(t, &stubGenerator{text: draft})
	w, _ := do(t, r, http.MethodPost, "/api/pieces", generateBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/pieces/piece-1/export?archive=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, docx.MimeType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "peca_piece-1.docx")
	archived := w.Header().Get("X-Export-Path")
	require.NotEmpty(t, archived)

	w, _ = do(t, r, http.MethodGet, "/api/exports/"+archived, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, w.Body.Len() > 0)

	w, _ = do(t, r, http.MethodDelete, "/api/exports/"+archived, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/exports/"+archived, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "EXPORT_NOT_FOUND", env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/api/pieces/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PIECE_NOT_FOUND", env.Error.Code)
}

func TestNormalizeDocumentList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeDocumentList(json.RawMessage(`["a", " ", "b"]`)))
	assert.Equal(t, []string{"fatura", "contrato", "protocolo"}, normalizeDocumentList(json.RawMessage(`"fatura, contrato\nprotocolo"`)))
	assert.Nil(t, normalizeDocumentList(nil))
	assert.Nil(t, normalizeDocumentList(json.RawMessage(`42`)))
}

func TestParseMemoryType(t *testing.T) {
	for raw, want := range map[string]models.MemoryType{
		"":               "",
		"jurisprudência": models.MemoryTypeCaseLaw,
		"THESIS":         models.MemoryTypeThesis,
		"insight":        models.MemoryTypeInsight,
	} {
		got, ok := parseMemoryType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := parseMemoryType("rumor")
	assert.False(t, ok)
}
