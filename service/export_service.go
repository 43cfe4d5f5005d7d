package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"pecajuridica-backend/docx"
	"pecajuridica-backend/repository"
	"pecajuridica-backend/storage"
)

// ExportService serializes stored pieces and archives the results
type ExportService struct {
	pieces  repository.PieceStore
	builder *docx.Builder
	archive storage.Storage
}

// ExportServiceOption is a functional option for ExportService
type ExportServiceOption func(*ExportService)

// ExportWithStore sets the piece store
func ExportWithStore(store repository.PieceStore) ExportServiceOption {
	return func(s *ExportService) {
		s.pieces = store
	}
}

// ExportWithBuilder sets the container builder
func ExportWithBuilder(b *docx.Builder) ExportServiceOption {
	return func(s *ExportService) {
		s.builder = b
	}
}

// ExportWithStorage sets where archived exports are kept
func ExportWithStorage(st storage.Storage) ExportServiceOption {
	return func(s *ExportService) {
		s.archive = st
	}
}

// NewExportService creates a new export service
func NewExportService(opts ...ExportServiceOption) *ExportService {
	s := &ExportService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = docx.NewBuilder()
	}
	return s
}

// ExportRequest represents a request to export a piece
type ExportRequest struct {
	PieceID string
	Archive bool
}

// ExportResult holds the container and, when archived, its storage path
type ExportResult struct {
	File        *docx.Result
	StoragePath string
}

// ExportPiece builds the document container of a stored piece
func (s *ExportService) ExportPiece(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if s.pieces == nil {
		return nil, errors.New("piece store not set")
	}

	piece, err := s.pieces.Get(ctx, req.PieceID)
	if errors.Is(err, repository.ErrPieceNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPieceNotFound, req.PieceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load piece: %w", err)
	}

	file, err := s.builder.Build(piece)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{File: file}
	if req.Archive {
		if s.archive == nil {
			log.Printf("Warning: export archive requested for piece %s but no storage is configured", piece.ID)
			return result, nil
		}
		path, err := s.archive.Save(ctx, piece.ID, file.Filename, bytes.NewReader(file.Data))
		if err != nil {
			log.Printf("Warning: failed to archive export of piece %s: %v", piece.ID, err)
			return result, nil
		}
		result.StoragePath = path
	}
	return result, nil
}

// OpenExport opens a previously archived export
func (s *ExportService) OpenExport(ctx context.Context, path string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, path)
	}
	rc, err := s.archive.Open(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	return rc, nil
}

// RemoveExport deletes a previously archived export
func (s *ExportService) RemoveExport(ctx context.Context, path string) error {
	if s.archive == nil {
		return fmt.Errorf("%w: %s", ErrExportNotFound, path)
	}
	err := s.archive.Remove(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrExportNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to remove export: %w", err)
	}
	return nil
}
