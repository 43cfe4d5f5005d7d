package service

import (
	"context"
	"strings"
	"sync"

	"pecajuridica-backend/gateway"
	"pecajuridica-backend/models"
)

type fakeGenerator struct {
	mu          sync.Mutex
	draft       string
	draftErr    error
	requests    string
	requestsErr error
	rewrite     string
	rewriteErr  error
	prompts     []gateway.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, p gateway.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)

	switch p.System {
	case draftSystem:
		return f.draft, f.draftErr
	case requestsSystem:
		return f.requests, f.requestsErr
	default:
		return f.rewrite, f.rewriteErr
	}
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []models.ResearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ []string, maxResults int) ([]models.ResearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeMemory struct {
	mu       sync.Mutex
	items    []models.MemoryItem
	records  []models.MemoryRecord
	writeErr error
	queryErr error
	queries  []models.MemoryQuery
	filters  []models.MemoryFilter
}

func (f *fakeMemory) Write(_ context.Context, items []models.MemoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeMemory) Query(_ context.Context, _ string, q models.MemoryQuery) ([]models.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.records, nil
}

func (f *fakeMemory) List(_ context.Context, filter models.MemoryFilter) ([]models.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	return f.records, nil
}

func (f *fakeMemory) byType(t models.MemoryType) []models.MemoryItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MemoryItem
	for _, item := range f.items {
		if item.Type == t {
			out = append(out, item)
		}
	}
	return out
}

func (f *fakeMemory) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items) + len(f.queries) + len(f.filters)
}

const petitionDraft = `# PETIÇÃO INICIAL

## Preâmbulo
Excelentíssimo Senhor Doutor Juiz de Direito.

## Dos Fatos
A autora adquiriu produto defeituoso e não obteve reparo.

## Fundamentação Jurídica
Nos termos do Art. 5 da Constituição e do art.5, inciso XXXII, cabe proteção ao consumidor.
Aplica-se ainda o artigo 18 do CDC.

## Jurisprudência
O STJ reconhece o dever de indenizar em casos análogos.

## Dos Pedidos
a) a procedência da ação.

## Valor da Causa
Dá-se à causa o valor de R$ 10.000,00.`

func sampleParties() []models.Party {
	return []models.Party{
		{Name: "Loja XYZ Ltda", Role: models.RoleRespondent},
		{Name: "Maria Souza", Role: models.RoleClaimant, Qualification: "brasileira, professora"},
	}
}

func sampleResults(n int) []models.ResearchResult {
	results := make([]models.ResearchResult, n)
	for i := range results {
		results[i] = models.ResearchResult{
			Title:   "REsp " + strings.Repeat("1", i+1),
			Snippet: "Responsabilidade do fornecedor por vício do produto.",
			URL:     "https://stj.jus.br/resp/" + strings.Repeat("1", i+1),
		}
	}
	return results
}
