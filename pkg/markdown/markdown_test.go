package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("# Simples Nacional\n\nAlíquota **efetiva** de 4%.")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Simples Nacional</h1>")
	assert.Contains(t, out, "<strong>efetiva</strong>")
}

func TestToHTMLDropsRawHTML(t *testing.T) {
	out, err := ToHTML("<script>alert(1)</script>\n\ntexto")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>texto</p>")
}

func TestExcerpt(t *testing.T) {
	src := "# Título\n\nPrimeiro parágrafo com *ênfase*\ne quebra.\n\nSegundo."
	assert.Equal(t, "Primeiro parágrafo com ênfase e quebra.", Excerpt(src, 0))
	assert.Equal(t, "Primeiro…", Excerpt(src, 9))
	assert.Equal(t, "", Excerpt("# Só título", 50))
}
