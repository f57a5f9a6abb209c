package trackinglinks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeFirstTry(t *testing.T) {
	calls := 0
	code, err := GenerateCode(context.Background(), func(ctx context.Context, c string) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, 1, calls)
	for _, ch := range code {
		assert.Contains(t, codeAlphabet, string(ch))
	}
}

func TestGenerateCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	code, err := GenerateCode(context.Background(), func(ctx context.Context, c string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, 3, calls)
}

func TestGenerateCodeFallbackAfterExhaustion(t *testing.T) {
	code, err := GenerateCode(context.Background(), func(ctx context.Context, c string) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	// Fallback appends a base-36 timestamp to a fresh random code.
	assert.Greater(t, len(code), codeLength)
	for _, ch := range code[:codeLength] {
		assert.Contains(t, codeAlphabet, string(ch))
	}
}

func TestGenerateCodePropagatesCheckError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateCode(context.Background(), func(ctx context.Context, c string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCodeAlphabetExcludesAmbiguousChars(t *testing.T) {
	for _, ch := range "0O1lI" {
		assert.False(t, strings.ContainsRune(codeAlphabet, ch), "alphabet must not contain %q", ch)
	}
}
