package service

import (
	"fmt"
	"strings"

	"pecajuridica-backend/gateway"
	"pecajuridica-backend/models"
	"pecajuridica-backend/templates"
)

const (
	draftSystem    = "Você é um advogado especialista na redação de peças judiciais brasileiras."
	requestsSystem = "Você é um advogado especialista na redação de pedidos finais em peças judiciais brasileiras."
	rewriteSystem  = "Você é um advogado especialista em revisão de peças judiciais brasileiras."
	freeformSystem = "Você é um advogado brasileiro especializado em revisão e aprimoramento de peças processuais."
)

// draftPrompt asks for the whole piece, one ### block per template section
func draftPrompt(tpl templates.Template, req GenerateRequest) gateway.Prompt {
	var parties []string
	for _, p := range req.Parties {
		line := p.Role.Label() + ": " + p.Name
		if p.Qualification != "" {
			line += " (" + p.Qualification + ")"
		}
		parties = append(parties, line)
	}

	documents := "Sem documentos anexados informados."
	if len(req.Documents) > 0 {
		documents = fmt.Sprintf("Documentos relevantes: %s.", strings.Join(req.Documents, ", "))
	}

	relief := "Pedidos específicos não foram informados; gere requerimentos finais coerentes com a narrativa e a fundamentação."
	if req.RequestedRelief != "" {
		relief = fmt.Sprintf("Orientações do cliente sobre pedidos: %s.", req.RequestedRelief)
	}

	blocks := make([]string, len(tpl.Sections))
	for i, name := range tpl.Sections {
		blocks[i] = "### " + templates.SectionTitle(name) + "\n(Desenvolva este tópico conforme aplicável ao tipo da peça.)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Elabore uma peça processual do tipo %s, com linguagem jurídica técnica, clara e objetiva.\n\n", tpl.Title)
	fmt.Fprintf(&b, "Considere o seguinte caso fático:\n%s\n\n", req.FactSummary)
	fmt.Fprintf(&b, "Partes envolvidas:\n%s\n\n", strings.Join(parties, "\n"))
	fmt.Fprintf(&b, "%s\n%s\n\n", documents, relief)
	b.WriteString("Estruture a peça obedecendo aos blocos indicados abaixo, utilizando linguagem precisa e citações legais quando cabíveis:\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nInclua fundamentações jurídicas, artigos de lei e jurisprudências reais sempre que possível.\n")
	b.WriteString("No bloco destinado aos pedidos, produza requerimentos finais claros, coesos e juridicamente fundamentados, conectando-os aos fatos e à fundamentação desenvolvida.\n")
	b.WriteString("A resposta deve trazer um texto base estruturado para validação humana.")

	return gateway.Prompt{System: draftSystem, Text: b.String(), Temperature: 0.4}
}

// requestsPrompt asks for the content of a single requests section
func requestsPrompt(tpl templates.Template, section, facts, grounds, guidance, current string) gateway.Prompt {
	orientation := "Nenhuma orientação adicional específica foi fornecida."
	if guidance != "" {
		orientation = fmt.Sprintf("Orientações adicionais do cliente: %s.", guidance)
	}
	if grounds == "" {
		grounds = "(A fundamentação jurídica ainda não está detalhada. Utilize os fatos para sustentar os pedidos.)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é um advogado brasileiro elaborando requerimentos finais para uma peça processual do tipo %s.\n", tpl.Title)
	fmt.Fprintf(&b, "Resumo fático relevante:\n%s\n\n", facts)
	fmt.Fprintf(&b, "Principais fundamentos jurídicos já redigidos:\n%s\n\n", grounds)
	b.WriteString(orientation + "\n")
	if current != "" {
		fmt.Fprintf(&b, "Conteúdo anteriormente sugerido para a seção:\n%s\n\n", current)
	}
	fmt.Fprintf(&b, "Redija a seção \"%s\" com pedidos finais claros, numerados ou em tópicos, mantendo estilo jurídico técnico, coeso e alinhado aos fundamentos expostos.\n", templates.SectionTitle(section))
	b.WriteString("Conecte cada pedido aos fatos narrados e à fundamentação apresentada, evitando repetições desnecessárias.\n")
	b.WriteString("Retorne apenas o conteúdo da seção, sem repetir o título.")

	return gateway.Prompt{System: requestsSystem, Text: b.String(), Temperature: 0.2, Once: true}
}

type rewriteInput struct {
	typeTitle  string
	topic      string
	current    string
	memory     []string
	newContent string
	research   []models.ResearchResult
}

// rewritePrompt asks for a single topic rewritten with memory and research
func rewritePrompt(in rewriteInput) gateway.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é um advogado brasileiro revisando o tópico \"%s\" de uma peça processual do tipo %s.\n\n", in.topic, in.typeTitle)
	fmt.Fprintf(&b, "Conteúdo atual do tópico:\n%s\n\n", in.current)
	if len(in.memory) > 0 {
		fmt.Fprintf(&b, "Memória jurídica relacionada:\n%s\n\n", strings.Join(in.memory, "\n\n"))
	}
	if in.newContent != "" {
		fmt.Fprintf(&b, "Novas informações fornecidas:\n%s\n\n", in.newContent)
	}
	if refs := formatReferences(in.research); len(refs) > 0 {
		fmt.Fprintf(&b, "Jurisprudências e doutrinas relevantes:\n%s\n\n", strings.Join(refs, "\n\n"))
	}
	b.WriteString("Reescreva o tópico de forma técnica, coerente e aprimorada, mantendo alinhamento com o caso narrado. ")
	b.WriteString("Atualize fundamentações e pedidos implícitos conforme as referências apresentadas quando fizer sentido. ")
	b.WriteString("Entregue apenas o texto reescrito do tópico, sem incluir títulos adicionais.")

	return gateway.Prompt{System: rewriteSystem, Text: b.String(), Temperature: 0.3}
}

// freeformPrompt rewrites arbitrary text following optional instructions
func freeformPrompt(text, instructions string, context []string) gateway.Prompt {
	if instructions == "" {
		instructions = "Reescreva o texto aprimorando clareza, coesão, técnica jurídica e correção gramatical, mantendo o sentido essencial."
	}
	ctx := "Contexto adicional relevante: não há registros disponíveis.\n\n"
	if len(context) > 0 {
		ctx = fmt.Sprintf("Contexto adicional relevante:\n%s\n\n", strings.Join(context, "\n\n---\n\n"))
	}

	var b strings.Builder
	b.WriteString(instructions + "\n\n")
	b.WriteString(ctx)
	fmt.Fprintf(&b, "Texto atual:\n%s\n\n", text)
	b.WriteString("Retorne somente o texto reescrito, sem comentários adicionais.")

	return gateway.Prompt{System: freeformSystem, Text: b.String(), Temperature: 0.3}
}

func formatReferences(results []models.ResearchResult) []string {
	refs := make([]string, 0, len(results))
	for _, r := range results {
		var parts []string
		if r.Title != "" {
			parts = append(parts, r.Title)
		}
		if r.Snippet != "" {
			parts = append(parts, r.Snippet)
		}
		if r.URL != "" {
			parts = append(parts, "Fonte: "+r.URL)
		}
		if len(parts) > 0 {
			refs = append(refs, strings.Join(parts, "\n"))
		}
	}
	return refs
}
