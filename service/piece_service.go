package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pecajuridica-backend/citations"
	"pecajuridica-backend/gateway"
	"pecajuridica-backend/models"
	"pecajuridica-backend/repository"

	"github.com/google/uuid"
)

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, p gateway.Prompt) (string, error)
}

// Researcher finds legal research results restricted to a domain allow-list
type Researcher interface {
	Search(ctx context.Context, query string, domains []string, maxResults int) ([]models.ResearchResult, error)
}

// MemoryStore keeps passages used to ground generation
type MemoryStore interface {
	Write(ctx context.Context, items []models.MemoryItem) error
	Query(ctx context.Context, text string, q models.MemoryQuery) ([]models.MemoryRecord, error)
	List(ctx context.Context, f models.MemoryFilter) ([]models.MemoryRecord, error)
}

// PieceService generates pieces and refines their sections
type PieceService struct {
	pieces    repository.PieceStore
	generator Generator
	research  Researcher
	memory    MemoryStore
	verifier  *citations.Verifier
	now       func() time.Time
	newID     func() string

	locks   pieceLocks
	pending sync.WaitGroup
}

// PieceServiceOption is a functional option for PieceService
type PieceServiceOption func(*PieceService)

// PieceWithStore sets the piece store
func PieceWithStore(store repository.PieceStore) PieceServiceOption {
	return func(s *PieceService) {
		s.pieces = store
	}
}

// PieceWithGenerator sets the content generator
func PieceWithGenerator(g Generator) PieceServiceOption {
	return func(s *PieceService) {
		s.generator = g
	}
}

// PieceWithResearcher sets the research gateway
func PieceWithResearcher(r Researcher) PieceServiceOption {
	return func(s *PieceService) {
		s.research = r
	}
}

// PieceWithMemory sets the memory store
func PieceWithMemory(m MemoryStore) PieceServiceOption {
	return func(s *PieceService) {
		s.memory = m
	}
}

// PieceWithClock overrides time.Now
func PieceWithClock(now func() time.Time) PieceServiceOption {
	return func(s *PieceService) {
		s.now = now
	}
}

// PieceWithIDGenerator overrides how piece identifiers are assigned
func PieceWithIDGenerator(newID func() string) PieceServiceOption {
	return func(s *PieceService) {
		s.newID = newID
	}
}

// NewPieceService creates a new piece service. Without a store, pieces are
// kept in process memory.
func NewPieceService(opts ...PieceServiceOption) *PieceService {
	s := &PieceService{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pieces == nil {
		s.pieces = repository.NewMemoryPieceStore()
	}

	var searcher citations.Searcher
	if s.research != nil {
		searcher = s.research
	}
	s.verifier = citations.NewVerifier(searcher)
	return s
}

// GetPiece returns a stored piece
func (s *PieceService) GetPiece(ctx context.Context, id string) (*models.Piece, error) {
	return s.loadPiece(ctx, id)
}

func (s *PieceService) loadPiece(ctx context.Context, id string) (*models.Piece, error) {
	piece, err := s.pieces.Get(ctx, id)
	if errors.Is(err, repository.ErrPieceNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPieceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load piece: %w", err)
	}
	return piece, nil
}

func (s *PieceService) generate(ctx context.Context, p gateway.Prompt) (string, error) {
	if s.generator == nil {
		return "", errors.New("content generator not set")
	}
	return s.generator.Generate(ctx, p)
}

// inferClientName picks the explicit client id, else the first claimant,
// else the first named party
func inferClientName(clientID *string, parties []models.Party) string {
	if clientID != nil && *clientID != "" {
		return *clientID
	}
	for _, p := range parties {
		if p.Role == models.RoleClaimant && p.Name != "" {
			return p.Name
		}
	}
	for _, p := range parties {
		if p.Name != "" {
			return p.Name
		}
	}
	return models.UnknownClient
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pieceLocks serializes refinements of the same piece
type pieceLocks struct {
	mu    sync.Mutex
	locks map[string]*pieceLock
}

type pieceLock struct {
	sync.Mutex
	refs int
}

func (l *pieceLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*pieceLock)
	}
	pl, ok := l.locks[id]
	if !ok {
		pl = &pieceLock{}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.Lock()
	return func() {
		pl.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
