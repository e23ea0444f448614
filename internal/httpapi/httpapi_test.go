package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/images/list", nil)
	page, pageSize, err := pagination(r)
	require.NoError(t, err)
	require.Equal(t, 1, page)
	require.Equal(t, defaultPageSize, pageSize)
}

func TestPaginationRejectsPageBelowOne(t *testing.T) {
	r := httptest.NewRequest("GET", "/images/list?page=0", nil)
	_, _, err := pagination(r)
	require.ErrorIs(t, err, errInvalidPage)
}

func TestPaginationRejectsPageSizeOutOfRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/images/list?page_size=101", nil)
	_, _, err := pagination(r)
	require.ErrorIs(t, err, errInvalidPageSize)

	r = httptest.NewRequest("GET", "/images/list?page_size=0", nil)
	_, _, err = pagination(r)
	require.ErrorIs(t, err, errInvalidPageSize)
}

func TestPaginationAcceptsValidValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/images/list?page=3&page_size=50", nil)
	page, pageSize, err := pagination(r)
	require.NoError(t, err)
	require.Equal(t, 3, page)
	require.Equal(t, 50, pageSize)
}

func TestRoundSimilarity(t *testing.T) {
	require.InDelta(t, 0.7, roundSimilarity(0.3), 1e-9)
	require.InDelta(t, 1.0, roundSimilarity(0), 1e-9)
	require.InDelta(t, 0.12345, roundSimilarity(0.876551), 1e-4)
}

func TestIsAlpha(t *testing.T) {
	require.True(t, isAlpha("jpg"))
	require.True(t, isAlpha("jpeg"))
	require.False(t, isAlpha(""))
	require.False(t, isAlpha("jp3g"))
	require.False(t, isAlpha("jpg!"))
}
