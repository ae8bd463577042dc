package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCNAEService(t *testing.T) (*cnaeService, *mockAudit) {
	t.Helper()
	ref, err := taxcalc.DefaultReference()
	require.NoError(t, err)
	audit := &mockAudit{}
	return NewCNAEService(ref, time.Minute, audit).(*cnaeService), audit
}

func TestCNAESearchUsesCache(t *testing.T) {
	svc, _ := newTestCNAEService(t)
	p := pagination.Params{Page: 1, Limit: 5, Offset: 0}

	first, err := svc.Search(context.Background(), "Programas", p)
	require.NoError(t, err)
	require.NotEmpty(t, first.Items)
	assert.Equal(t, []string{"programas-1-5"}, svc.CacheStats().Keys)

	second, err := svc.Search(context.Background(), "programas", p)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCNAESearchRejectsLongTerm(t *testing.T) {
	svc, _ := newTestCNAEService(t)

	_, err := svc.Search(context.Background(), strings.Repeat("á", maxSearchTerm+1), pagination.Params{Page: 1, Limit: 20})
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "q", inErr.Field)

	_, err = svc.Search(context.Background(), strings.Repeat("á", maxSearchTerm), pagination.Params{Page: 1, Limit: 20})
	assert.NoError(t, err)
}

func TestCNAEGetByCode(t *testing.T) {
	svc, _ := newTestCNAEService(t)

	detail, err := svc.GetByCode(context.Background(), "6201-5/01")
	require.NoError(t, err)
	assert.Equal(t, taxcalc.AnnexV, detail.Annex)
	assert.Len(t, detail.Brackets, 6)
	assert.Contains(t, svc.CacheStats().Keys, "code-6201501")

	_, err = svc.GetByCode(context.Background(), "0000000")
	assert.ErrorIs(t, err, ErrCNAENotFound)
}

func TestCNAEByAnnex(t *testing.T) {
	svc, _ := newTestCNAEService(t)

	res, err := svc.ByAnnex(context.Background(), "v")
	require.NoError(t, err)
	for _, a := range res.Activities {
		assert.Equal(t, taxcalc.AnnexV, a.Annex)
	}

	for _, bad := range []string{"VI", "3", "IIII"} {
		_, err := svc.ByAnnex(context.Background(), bad)
		var inErr *InputError
		assert.True(t, errors.As(err, &inErr), bad)
	}
}

func TestLookupCacheExpiryAndClear(t *testing.T) {
	svc, audit := newTestCNAEService(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.cache.now = func() time.Time { return now }

	svc.cache.set("a", 1)
	svc.cache.set("b", 2)
	_, ok := svc.cache.get("a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = svc.cache.get("a")
	assert.False(t, ok)
	assert.Empty(t, svc.CacheStats().Keys)

	svc.cache.set("c", 3)
	assert.Equal(t, 1, svc.ClearCache(context.Background(), Actor{Role: model.RoleAdmin}))
	assert.Equal(t, 0, svc.CacheStats().Size)
	assert.Equal(t, []string{model.ActionClearCNAECache}, audit.actions())
}
