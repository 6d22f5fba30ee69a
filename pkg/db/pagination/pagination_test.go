package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimSetsNextPageToken(t *testing.T) {
	rows := []int64{30, 20, 10}

	page, info, err := Trim(rows, 2, func(v int64) Cursor { return Cursor{ID: v, SortKey: "2025-01-01"} })
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 20}, page)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(20), cursor.ID)
	assert.Equal(t, "2025-01-01", cursor.SortKey)
}

func TestTrimLastPage(t *testing.T) {
	page, info, err := Trim([]int64{1}, 5, func(v int64) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)

	c, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}
