package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPieceNotFound         = errors.New("piece not found")
	ErrTopicNotFound         = errors.New("topic not found")
	ErrGenerationFailed      = errors.New("failed to generate content")
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrExportNotFound        = errors.New("export not found")
)

// MissingFieldsError lists every mandatory input that was absent.
// It matches ErrMissingRequiredFields with errors.Is.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingRequiredFields
}

func generationError(err error) error {
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}
