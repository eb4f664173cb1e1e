package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"b3-stock-qa/pkg/logger"
)

// ErrTemplateNotFound is returned when no template file exists for an
// interpretation's template identifier.
var ErrTemplateNotFound = errors.New("query template not found")

// TemplateRepository loads query templates by identifier.
type TemplateRepository interface {
	Get(id string) (string, error)
}

type fileTemplateRepository struct {
	dir string
	log *logger.Logger
}

// NewFileTemplateRepository creates a TemplateRepository backed by a
// directory of template files. Identifier spaces map to underscores in the
// file name, so "closing price by date" resolves to
// closing_price_by_date.txt.
func NewFileTemplateRepository(dir string, log *logger.Logger) TemplateRepository {
	return &fileTemplateRepository{dir: dir, log: log}
}

func (r *fileTemplateRepository) Get(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}

	name := strings.ReplaceAll(id, " ", "_") + ".txt"
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
		}
		return "", fmt.Errorf("read template %q: %w", id, err)
	}

	text := stripComments(string(data))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrTemplateNotFound, id)
	}
	return text, nil
}

// stripComments drops lines whose first non-blank character is ';'.
func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
