package citations

import (
	"context"
	"log"

	"pecajuridica-backend/models"
)

const verificationPhrase = "texto legal vigente legislação brasileira"

// TrustedDomains restricts verification searches to official and reputable legal sources
var TrustedDomains = []string{
	"planalto.gov.br",
	"stf.jus.br",
	"stj.jus.br",
	"jusbrasil.com.br",
	"conjur.com.br",
}

// Searcher is the research collaborator used to corroborate citations
type Searcher interface {
	Search(ctx context.Context, query string, domains []string, maxResults int) ([]models.ResearchResult, error)
}

// Verifier checks citations one at a time against research results
type Verifier struct {
	searcher   Searcher
	domains    []string
	maxResults int
}

// NewVerifier creates a verifier; a nil searcher leaves every citation unconfirmed
func NewVerifier(searcher Searcher) *Verifier {
	return &Verifier{
		searcher:   searcher,
		domains:    TrustedDomains,
		maxResults: 3,
	}
}

// Verify returns new citations marked confirmed when research found them.
// Search failures leave the citation unconfirmed.
func (v *Verifier) Verify(ctx context.Context, cites []models.ArticleCitation) []models.ArticleCitation {
	verified := make([]models.ArticleCitation, 0, len(cites))
	for _, c := range cites {
		c.Confirmed = false
		c.Reference = nil

		if v.searcher != nil {
			results, err := v.searcher.Search(ctx, c.Article+" "+verificationPhrase, v.domains, v.maxResults)
			if err != nil {
				log.Printf("Warning: failed to verify %s: %v", c.Article, err)
			} else if len(results) > 0 {
				c.Confirmed = true
				if url := results[0].URL; url != "" {
					c.Reference = &url
				}
			}
		}
		verified = append(verified, c)
	}
	return verified
}

// Review extracts, verifies and annotates the citations of text in one pass
func (v *Verifier) Review(ctx context.Context, text string) (string, []models.ArticleCitation) {
	cites := v.Verify(ctx, Extract(text))
	return Annotate(text, cites), cites
}
