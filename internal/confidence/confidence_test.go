// File: internal/confidence/confidence_test.go
package confidence

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBounds(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a",
		"open google and search for weather in lisbon.",
		"!!!@@@###$$$%%%",
		strings.Repeat("x", 500),
		strings.Repeat("go ", 50),
		"Click the first result, then take a screenshot of the page.",
	}
	for _, in := range inputs {
		s := Score(in)
		assert.GreaterOrEqual(t, s, 0.0, "input %q", in)
		assert.LessOrEqual(t, s, 1.0, "input %q", in)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	assert.Zero(t, Score(""))
	assert.Zero(t, Score("   \t\n"))
}

func TestScoreDeterministic(t *testing.T) {
	in := "navigate to github and open the first repository."
	assert.Equal(t, Score(in), Score(in))
}

// The scorer is an ordinal signal: well-formed speech should outrank noise,
// not hit exact values.
func TestScoreOrdering(t *testing.T) {
	tests := []struct {
		name   string
		higher string
		lower  string
	}{
		{
			name:   "sentence beats tiny fragment",
			higher: "Open the browser and search for the weather forecast in Lisbon.",
			lower:  "ab",
		},
		{
			name:   "sentence beats symbol noise",
			higher: "Click the login button and type my username in the field.",
			lower:  "€€€€ ☃☃☃☃ ∆∆∆∆ ◊◊◊◊",
		},
		{
			name:   "diverse words beat one repeated token",
			higher: "Please scroll down and take a screenshot of that article.",
			lower:  "test test test test test test test test",
		},
		{
			name:   "normal text beats repeated character runs",
			higher: "Go to youtube and search for a cooking tutorial, then click play.",
			lower:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbbb",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hi, lo := Score(tt.higher), Score(tt.lower)
			assert.Greater(t, hi, lo, "higher=%.2f lower=%.2f", hi, lo)
		})
	}
}

func TestScoreRewardsSentencePunctuation(t *testing.T) {
	base := "open google and search for the latest football scores"
	assert.Greater(t, Score(base+"."), Score(base))
}

func TestStatistics(t *testing.T) {
	stats := Statistics("Open the browser. Search for cats! Then wait.")
	assert.Equal(t, 8, stats.WordCount)
	assert.Equal(t, 3, stats.SentenceCount)
	assert.Equal(t, 45, stats.CharCount)
	assert.InDelta(t, 2.7, stats.AvgWordsPerSentence, 0.01)
	assert.Greater(t, stats.Confidence, 0.0)
}

func TestStatisticsEmpty(t *testing.T) {
	stats := Statistics("")
	assert.Zero(t, stats.WordCount)
	assert.Zero(t, stats.CharCount)
	assert.Zero(t, stats.SentenceCount)
	assert.Zero(t, stats.Confidence)
}

func FuzzScore(f *testing.F) {
	f.Add([]byte("open google and search for something"))
	f.Add([]byte(""))
	f.Add([]byte("\x00\xff\xfe"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		text, err := consumer.GetString()
		if err != nil {
			return
		}
		s := Score(text)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
		require.Equal(t, s, Score(text), "score must be deterministic")
	})
}
