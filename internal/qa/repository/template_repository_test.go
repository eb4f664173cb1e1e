package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b3-stock-qa/pkg/logger"
)

func newTemplateDir(t *testing.T, files map[string]string) TemplateRepository {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return NewFileTemplateRepository(dir, logger.NewNop())
}

func TestGetMapsSpacesToUnderscores(t *testing.T) {
	repo := newTemplateDir(t, map[string]string{
		"closing_price_by_date.txt": "[:find ?preco :where [?e :entity/id #ENTIDADE#]]",
	})

	text, err := repo.Get("closing price by date")
	require.NoError(t, err)
	assert.Contains(t, text, ":find ?preco")
}

func TestGetStripsCommentLines(t *testing.T) {
	repo := newTemplateDir(t, map[string]string{
		"q.txt": "; header comment\n[:find ?x\n  ; inline full-line comment\n :where [?x :rdf/type :stock/Empresa]]\n",
	})

	text, err := repo.Get("q")
	require.NoError(t, err)
	assert.NotContains(t, text, "comment")
	assert.Contains(t, text, ":where")
}

func TestGetUnknownTemplate(t *testing.T) {
	repo := newTemplateDir(t, nil)
	_, err := repo.Get("no such template")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGetRejectsPathEscapes(t *testing.T) {
	repo := newTemplateDir(t, nil)
	for _, id := range []string{"../secret", "a/b", `a\b`, ""} {
		_, err := repo.Get(id)
		assert.ErrorIs(t, err, ErrTemplateNotFound, "id %q", id)
	}
}

func TestGetCommentOnlyTemplateIsMissing(t *testing.T) {
	repo := newTemplateDir(t, map[string]string{"empty.txt": "; nothing here\n"})
	_, err := repo.Get("empty")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
