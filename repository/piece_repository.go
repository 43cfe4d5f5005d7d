package repository

import (
	"context"
	"errors"
	"fmt"

	"pecajuridica-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PieceRepository keeps pieces in Postgres so they survive restarts
type PieceRepository struct {
	db *pgxpool.Pool
}

// NewPieceRepository creates a new piece repository
func NewPieceRepository(db *pgxpool.Pool) *PieceRepository {
	return &PieceRepository{db: db}
}

// Put inserts the piece or overwrites the stored version
func (r *PieceRepository) Put(ctx context.Context, piece *models.Piece) error {
	query := `
		INSERT INTO pieces (
			id, document_type, text, citations, client_name,
			client_id, process_id, parties, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			citations = EXCLUDED.citations,
			client_name = EXCLUDED.client_name,
			client_id = EXCLUDED.client_id,
			process_id = EXCLUDED.process_id,
			parties = EXCLUDED.parties,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(
		ctx, query,
		piece.ID,
		piece.DocumentType,
		piece.Text,
		piece.Citations,
		piece.ClientName,
		piece.ClientID,
		piece.ProcessID,
		piece.Parties,
		piece.CreatedAt,
		piece.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store piece: %w", err)
	}
	return nil
}

// Get retrieves a piece by ID
func (r *PieceRepository) Get(ctx context.Context, id string) (*models.Piece, error) {
	piece := &models.Piece{}
	query := `
		SELECT id, document_type, text, citations, client_name,
			client_id, process_id, parties, created_at, updated_at
		FROM pieces
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&piece.ID,
		&piece.DocumentType,
		&piece.Text,
		&piece.Citations,
		&piece.ClientName,
		&piece.ClientID,
		&piece.ProcessID,
		&piece.Parties,
		&piece.CreatedAt,
		&piece.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPieceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get piece: %w", err)
	}
	return piece, nil
}
