package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, id := range []int64{0, 1, 42, 1<<62 - 1} {
		id := id
		cursor := encodeCursor(id)
		got, ok := decodeCursor(cursor)
		require.True(t, ok, "cursor for %d", id)
		require.Equal(t, id, got)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"base64 of non-number", "YWJj"}, // "abc"
		{"base64 of negative", "LTU="},   // "-5"
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := decodeCursor(tc.cursor)
			require.False(t, ok)
		})
	}
}
