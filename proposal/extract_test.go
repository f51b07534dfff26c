package proposal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDirectParseMatchesJSON(t *testing.T) {
	inputs := []string{
		`{"new_items":[{"title":"a"}]}`,
		`  {"a":1,"b":[true,null,"x"]}  `,
		`{}`,
		`[1,2]`,
	}
	for _, in := range inputs {
		var want any
		require.NoError(t, json.Unmarshal([]byte(in), &want))

		got, err := Extract(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestExtractFencedBlock(t *testing.T) {
	inner := `{"trip_updates":{"id":"t1","updates":{"title":"x"}}}`
	var want any
	require.NoError(t, json.Unmarshal([]byte(inner), &want))

	for _, text := range []string{
		"Here you go:\n```json\n" + inner + "\n```\nEnjoy!",
		"```\n" + inner + "\n```",
		"```json" + inner + "```",
	} {
		got, err := Extract(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestExtractBraceSpan(t *testing.T) {
	got, err := Extract(`Sure! Here is your plan: {"new_items":[{"title":"City walk"}]} Have fun.`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"new_items": []any{map[string]any{"title": "City walk"}}}, got)
}

func TestExtractNullSentinel(t *testing.T) {
	for _, text := range []string{"null", "  null\n"} {
		got, err := Extract(text)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestExtractNonJSON(t *testing.T) {
	_, err := Extract("I cannot comply.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonJSON))

	var nerr *NonJSONError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "I cannot comply.", nerr.Excerpt)
}

func TestExtractExcerptIsTruncatedByRunes(t *testing.T) {
	text := strings.Repeat("行", 300)
	_, err := Extract(text)

	var nerr *NonJSONError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, ExcerptLength, len([]rune(nerr.Excerpt)))
}

func TestExtractBrokenBracesFail(t *testing.T) {
	_, err := Extract("{not json at all}")
	assert.ErrorIs(t, err, ErrNonJSON)
}
