package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// UnknownClient is stored as the client name when nothing identifies the client
const UnknownClient = "desconhecido"

// Party represents a participant in the filing
type Party struct {
	Name          string    `json:"name"`
	Role          PartyRole `json:"role"`
	Qualification string    `json:"qualification,omitempty"`
}

// Parties is a JSONB-backed party snapshot
type Parties []Party

// Value implements driver.Valuer for JSONB
func (p Parties) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *Parties) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// ArticleCitation is a statutory-article reference found in generated text
type ArticleCitation struct {
	Article   string  `json:"article"`
	Key       string  `json:"key"`
	Confirmed bool    `json:"confirmed"`
	Reference *string `json:"reference"`
}

// Citations is a JSONB-backed citation list
type Citations []ArticleCitation

// Value implements driver.Valuer for JSONB
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *Citations) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Piece is a stored generated filing
type Piece struct {
	ID           string       `json:"id"`
	DocumentType DocumentType `json:"document_type"`
	Text         string       `json:"text"`
	Citations    Citations    `json:"citations"`
	ClientName   string       `json:"client_name"`
	ClientID     *string      `json:"client_id,omitempty"`
	ProcessID    *string      `json:"process_id,omitempty"`
	Parties      Parties      `json:"parties"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so stores never share slices with callers
func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	if p.Citations != nil {
		c.Citations = make(Citations, len(p.Citations))
		for i, cit := range p.Citations {
			if cit.Reference != nil {
				ref := *cit.Reference
				cit.Reference = &ref
			}
			c.Citations[i] = cit
		}
	}
	if p.Parties != nil {
		c.Parties = append(Parties(nil), p.Parties...)
	}
	if p.ClientID != nil {
		id := *p.ClientID
		c.ClientID = &id
	}
	if p.ProcessID != nil {
		id := *p.ProcessID
		c.ProcessID = &id
	}
	return &c
}

// ResearchResult is one ranked result from legal research
type ResearchResult struct {
	Title       string `json:"title,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, dest)
}
