package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validSchema = `
classes:
  - Empresa
  - Empresa_Capital_Aberto
subclass_of:
  - child: Empresa_Capital_Aberto
    parent: Empresa
subproperty_of:
  - child: ":stock/temValorMobiliarioNegociado"
    parent: ":stock/temValorMobiliario"
value_properties:
  preco_fechamento: ":stock/precoFechamento"
facts:
  - entity: "Ordinaria"
    attribute: ":rdfs/label"
    value: "Ação Ordinária"
`

func TestLoad(t *testing.T) {
	s, err := Load(writeSchema(t, validSchema))
	require.NoError(t, err)

	assert.Len(t, s.Classes, 2)
	require.Len(t, s.SubclassOf, 1)
	assert.Equal(t, "Empresa", s.SubclassOf[0].Parent)
	require.Len(t, s.Facts, 1)
	assert.Equal(t, ":rdfs/label", s.Facts[0].Attribute)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	_, err := Load("/nonexistent/schema.yaml")
	assert.Error(t, err)
}

func TestLoadRequiresClassesAndFacts(t *testing.T) {
	_, err := Load(writeSchema(t, "facts:\n  - entity: x\n    attribute: \":a/b\"\n    value: v\n"))
	assert.Error(t, err, "no classes")

	_, err = Load(writeSchema(t, "classes:\n  - Empresa\n"))
	assert.Error(t, err, "no base facts")
}

func TestLoadRejectsNonKeywordValueProperty(t *testing.T) {
	_, err := Load(writeSchema(t, `
classes:
  - Empresa
value_properties:
  preco: "not-a-keyword"
facts:
  - entity: x
    attribute: ":a/b"
    value: v
`))
	assert.Error(t, err)
}

func TestValuePredicate(t *testing.T) {
	s, err := Load(writeSchema(t, validSchema))
	require.NoError(t, err)

	pred, ok := s.ValuePredicate("  Preco_Fechamento ")
	assert.True(t, ok)
	assert.Equal(t, ":stock/precoFechamento", pred.String())

	_, ok = s.ValuePredicate("unknown")
	assert.False(t, ok)
}
