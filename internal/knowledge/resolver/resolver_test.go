package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b3-stock-qa/pkg/logger"
)

func newTestResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := New(opts, logger.NewNop())
	require.NoError(t, err)
	return r
}

func writeAliasMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aliases.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidTickerStrict(t *testing.T) {
	r := newTestResolver(t, Options{StrictTickers: true})

	valid := []string{"PETR4", "VALE3", "USIM5", "petr4", " BBDC4 ", "CTNM34"}
	for _, v := range valid {
		assert.True(t, r.ValidTicker(v), "ticker %q", v)
	}
	invalid := []string{"", "PETR", "P4", "PETR4F11X", "PE TR4", "1234A"}
	for _, v := range invalid {
		assert.False(t, r.ValidTicker(v), "ticker %q", v)
	}
}

func TestValidTickerLoose(t *testing.T) {
	r := newTestResolver(t, Options{StrictTickers: false})
	assert.True(t, r.ValidTicker("PETR4"))
	assert.True(t, r.ValidTicker("BVMF3B"))
	assert.False(t, r.ValidTicker("TOOLONGTICKER"))
}

func TestResolveSecurity(t *testing.T) {
	r := newTestResolver(t, Options{StrictTickers: true})

	id, err := r.ResolveSecurity(" petr4 ")
	require.NoError(t, err)
	assert.Equal(t, "PETR4", id)

	_, err = r.ResolveSecurity("not a ticker")
	assert.ErrorIs(t, err, ErrInvalidTicker)
}

func TestResolveCompanyViaAliases(t *testing.T) {
	path := writeAliasMap(t, `{"PETROBRAS": "PETR4", "Petróleo Brasileiro S.A.": "PETR4"}`)
	r := newTestResolver(t, Options{AliasMapPath: path})

	id, ok := r.ResolveCompany("petrobras")
	assert.True(t, ok)
	assert.Equal(t, "PETR4", id)

	// Normalized retry: accents, suffixes and punctuation do not matter.
	id, ok = r.ResolveCompany("PETROLEO BRASILEIRO SA")
	assert.True(t, ok)
	assert.Equal(t, "PETR4", id)
}

func TestResolveCompanyFallbackIsDeterministic(t *testing.T) {
	r := newTestResolver(t, Options{})

	id1, ok := r.ResolveCompany("Unknown Corp")
	assert.False(t, ok)
	id2, _ := r.ResolveCompany("Unknown Corp")
	assert.Equal(t, id1, id2)
	assert.Equal(t, "UNKNOWN_CORP", id1)
}

func TestMissingAliasMapDegrades(t *testing.T) {
	r := newTestResolver(t, Options{AliasMapPath: "/nonexistent/aliases.json"})
	_, ok := r.ResolveCompany("PETROBRAS")
	assert.False(t, ok)
}

func TestBrokenAliasMapIsFatal(t *testing.T) {
	path := writeAliasMap(t, `{not json`)
	_, err := New(Options{AliasMapPath: path}, logger.NewNop())
	assert.Error(t, err)
}

func TestResolveDate(t *testing.T) {
	now := func() time.Time { return time.Date(2010, 1, 5, 12, 0, 0, 0, time.UTC) }
	r := newTestResolver(t, Options{Now: now})

	d, err := r.ResolveDate("04/01/2010")
	require.NoError(t, err)
	assert.Equal(t, "2010-01-04", d.Format("2006-01-02"))

	d, err = r.ResolveDate("ontem")
	require.NoError(t, err)
	assert.Equal(t, "2010-01-04", d.Format("2006-01-02"))

	_, err = r.ResolveDate("never")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNormalizeName(t *testing.T) {
	r := newTestResolver(t, Options{})

	tests := []struct {
		in, want string
	}{
		{"Petróleo Brasileiro S.A.", "PETROLEOBRASILEIRO"},
		{"Banco Bradesco S/A", "BANCOBRADESCO"},
		{"Usinas Siderúrgicas de Minas Gerais", "USINASSIDERURGICASDEMINASGERAIS"},
		{"Gerdau PN", "GERDAU"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, r.NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeID(t *testing.T) {
	r := newTestResolver(t, Options{})

	assert.Equal(t, "Petroleo_Brasileiro_S.A.", r.SanitizeID("Petróleo Brasileiro S.A."))
	assert.Equal(t, "PETR4", r.SanitizeID("PETR4"))
	assert.Equal(t, "Setor_Financeiro", r.SanitizeID("Setor  Financeiro"))

	// Digits cannot start an identifier.
	assert.Equal(t, "id_123", r.SanitizeID("123"))

	// Unsanitizable inputs map to a deterministic marker.
	first := r.SanitizeID("???")
	second := r.SanitizeID("???")
	assert.Equal(t, first, second)
	assert.Contains(t, first, "id_")
}
