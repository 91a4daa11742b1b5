package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "facegate/pkg/domain-errors"
)

func TestParseSessionID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := NewSessionID()
		parsed, err := ParseSessionID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
		assert.False(t, parsed.IsNil())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, input := range []string{
			"",
			"not-a-uuid",
			"00000000-0000-0000-0000-000000000000",
		} {
			_, err := ParseSessionID(input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
		}
	})
}

func TestSessionIDJSON(t *testing.T) {
	original := NewSessionID()
	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"`+original.String()+`"`, string(raw))

	var restored SessionID
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, original, restored)
}

func TestParseUserID(t *testing.T) {
	t.Run("accepts common identifiers", func(t *testing.T) {
		for _, input := range []string{
			"alice",
			"badge-0042",
			"j.doe@example.com",
			"user_7",
		} {
			parsed, err := ParseUserID(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, UserID(input), parsed)
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		parsed, err := ParseUserID("  alice  ")
		require.NoError(t, err)
		assert.Equal(t, UserID("alice"), parsed)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for name, input := range map[string]string{
			"empty":       "",
			"only spaces": "   ",
			"too long":    strings.Repeat("a", 65),
			"slash":       "a/b",
			"unicode":     "useré",
			"space":       "a b",
		} {
			_, err := ParseUserID(input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "case %s", name)
		}
	})

	t.Run("length boundary", func(t *testing.T) {
		_, err := ParseUserID(strings.Repeat("a", 64))
		assert.NoError(t, err)
	})
}
