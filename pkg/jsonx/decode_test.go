package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scored struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

func TestDecodeStrictJSON(t *testing.T) {
	var out scored
	err := Decode([]byte(`{"score": 85, "justification": "strong fit"}`), &out)
	require.NoError(t, err)
	assert.Equal(t, 85.0, out.Score)
	assert.Equal(t, "strong fit", out.Justification)
}

func TestDecodeSalvagesObjectFromProse(t *testing.T) {
	input := []byte("Sure! Here is the evaluation you asked for:\n\n" +
		`{"score": 42, "justification": "mid-market"}` +
		"\n\nLet me know if you need anything else.")

	var out scored
	err := Decode(input, &out)
	require.NoError(t, err)
	assert.Equal(t, 42.0, out.Score)
}

func TestDecodeSalvagesFromMarkdownFence(t *testing.T) {
	input := []byte("```json\n{\"score\": 70, \"justification\": \"ok\"}\n```")

	var out scored
	err := Decode(input, &out)
	require.NoError(t, err)
	assert.Equal(t, 70.0, out.Score)
}

func TestDecodeHandlesNestedObjects(t *testing.T) {
	input := []byte(`noise {"score": 10, "breakdown": {"funding": {"score": 3}}} trailing`)

	var out map[string]interface{}
	err := Decode(input, &out)
	require.NoError(t, err)
	assert.Contains(t, out, "breakdown")
}

func TestDecodeIgnoresBracesInsideStrings(t *testing.T) {
	input := []byte(`reply: {"justification": "uses {braces} and \"quotes\"", "score": 5}`)

	var out scored
	err := Decode(input, &out)
	require.NoError(t, err)
	assert.Equal(t, 5.0, out.Score)
	assert.Equal(t, `uses {braces} and "quotes"`, out.Justification)
}

func TestDecodeFailsOnPlainText(t *testing.T) {
	var out scored
	err := Decode([]byte("I could not evaluate this lead, sorry."), &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeFailsOnUnbalancedBraces(t *testing.T) {
	var out scored
	err := Decode([]byte(`{"score": 10`), &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractObjectSkipsMalformedCandidate(t *testing.T) {
	input := []byte(`{bad json} then {"score": 1}`)

	obj, err := ExtractObject(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 1}`, string(obj))
}
