package service

import (
	"context"
	"errors"
	"testing"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueSlugAppendsCounter(t *testing.T) {
	taken := map[string]bool{"regime-tributario-2024": true, "regime-tributario-2024-2": true}
	exists := func(_ context.Context, s string, _ *uuid.UUID) (bool, error) { return taken[s], nil }

	got, err := uniqueSlug(context.Background(), "Regime Tributário 2024", nil, exists)
	require.NoError(t, err)
	assert.Equal(t, "regime-tributario-2024-3", got)

	_, err = uniqueSlug(context.Background(), "!!!", nil, exists)
	var inErr *InputError
	assert.True(t, errors.As(err, &inErr))
}

func TestRenderFillsHTMLAndSummary(t *testing.T) {
	post := &model.Post{Content: "Primeiro **parágrafo** do texto.\n\nSegundo parágrafo."}
	require.NoError(t, render(post))

	assert.Contains(t, post.ContentHTML, "<strong>parágrafo</strong>")
	assert.Equal(t, "Primeiro parágrafo do texto.", post.Summary)

	post = &model.Post{Content: "texto", Summary: "resumo manual"}
	require.NoError(t, render(post))
	assert.Equal(t, "resumo manual", post.Summary)
}
