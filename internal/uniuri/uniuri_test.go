package uniuri

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	seen := make(map[string]struct{})

	for range 100 {
		tok, err := Token()
		require.NoError(t, err)
		assert.Len(t, tok, TokenLen)

		for _, c := range []byte(tok) {
			assert.True(t, bytes.IndexByte(Chars, c) >= 0, "unexpected character %q", c)
		}

		_, dup := seen[tok]
		assert.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestNewLenChars(t *testing.T) {
	s, err := NewLenChars(0, Chars)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = NewLenChars(64, []byte("ab"))
	require.NoError(t, err)
	assert.Len(t, s, 64)
	assert.Empty(t, bytes.Trim([]byte(s), "ab"))

	_, err = NewLenChars(8, []byte("a"))
	assert.ErrorIs(t, err, ErrCharset)
}
