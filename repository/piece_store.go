package repository

import (
	"context"
	"errors"
	"sync"

	"pecajuridica-backend/models"
)

// ErrPieceNotFound is returned by every PieceStore for unknown identifiers
var ErrPieceNotFound = errors.New("piece not found")

// PieceStore keeps generated pieces keyed by identifier
type PieceStore interface {
	Get(ctx context.Context, id string) (*models.Piece, error)
	Put(ctx context.Context, piece *models.Piece) error
}

// MemoryPieceStore keeps pieces in process memory; they are lost on restart
type MemoryPieceStore struct {
	mu     sync.RWMutex
	pieces map[string]*models.Piece
}

// NewMemoryPieceStore creates an empty in-process store
func NewMemoryPieceStore() *MemoryPieceStore {
	return &MemoryPieceStore{pieces: make(map[string]*models.Piece)}
}

// Get returns a copy of the stored piece
func (s *MemoryPieceStore) Get(_ context.Context, id string) (*models.Piece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	piece, ok := s.pieces[id]
	if !ok {
		return nil, ErrPieceNotFound
	}
	return piece.Clone(), nil
}

// Put stores a copy of piece, replacing any previous version
func (s *MemoryPieceStore) Put(_ context.Context, piece *models.Piece) error {
	if piece == nil || piece.ID == "" {
		return errors.New("piece id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pieces[piece.ID] = piece.Clone()
	return nil
}
