// File: internal/confidence/confidence.go

// Package confidence scores how plausible a transcribed utterance is as
// natural language. The score is a heuristic ordinal signal in [0,1], not a
// correctness guarantee.
package confidence

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Closed-class English words. A transcript with a healthy share of these is
// more likely to be real speech than transcription noise.
var commonWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "with": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"it": {}, "you": {}, "i": {}, "that": {}, "this": {}, "at": {}, "my": {},
}

var (
	connectorRe = regexp.MustCompile(`(?i)\b(that|then|with|very|well|also|because|please)\b`)
	suffixRe    = regexp.MustCompile(`(?i)\b\w+(tion|sion|ment|ness|ing|edly|fully)\b`)
	strangeRe   = regexp.MustCompile(`[^\w\s\p{P}\p{M}]`)
	nonWordRe   = regexp.MustCompile(`[^\w]`)
)

// Score rates text plausibility in [0,1]. Empty or whitespace-only input
// scores 0. Deterministic and free of I/O.
func Score(text string) float64 {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return 0
	}

	score := 0.5
	score += evaluateLength(clean)
	score += evaluatePunctuation(clean)
	score += evaluateWordQuality(clean)
	score += evaluateCharacterDistribution(clean)
	score += evaluateLanguageConsistency(clean)

	return math.Max(0, math.Min(1, score))
}

func evaluateLength(text string) float64 {
	length := len([]rune(text))
	switch {
	case length < 10:
		return -0.3
	case length < 30:
		return -0.1
	case length > 200:
		return 0.2
	case length > 50:
		return 0.1
	}
	return 0
}

func evaluatePunctuation(text string) float64 {
	score := 0.0

	runes := []rune(text)
	last := runes[len(runes)-1]
	if last == '.' || last == '!' || last == '?' {
		score += 0.15
	}

	wordCount := len(strings.Split(text, " "))
	commaRatio := float64(strings.Count(text, ",")) / float64(wordCount)
	if commaRatio > 0 && commaRatio < 0.3 {
		score += 0.1
	}
	if strings.ContainsAny(text, ":;") {
		score += 0.05
	}
	return score
}

func evaluateWordQuality(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return -0.5
	}

	score := 0.0

	totalLen := 0
	for _, w := range words {
		totalLen += len([]rune(w))
	}
	avgLength := float64(totalLen) / float64(len(words))
	if avgLength < 2 {
		score -= 0.3
	}
	if avgLength >= 3 && avgLength <= 8 {
		score += 0.1
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	diversity := float64(len(unique)) / float64(len(words))
	if diversity > 0.7 {
		score += 0.15
	}
	if diversity < 0.3 {
		score -= 0.2
	}

	// A single token dominating the stream is a transcription artifact.
	counts := make(map[string]int, len(words))
	maxRepetitions := 0
	for _, w := range words {
		norm := nonWordRe.ReplaceAllString(strings.ToLower(w), "")
		counts[norm]++
		if counts[norm] > maxRepetitions {
			maxRepetitions = counts[norm]
		}
	}
	if float64(maxRepetitions) > float64(len(words))*0.5 {
		score -= 0.3
	}

	return score
}

func evaluateCharacterDistribution(text string) float64 {
	score := 0.0

	strange := strangeRe.FindAllString(text, -1)
	strangeRatio := float64(len(strange)) / float64(len([]rune(text)))
	if strangeRatio > 0.1 {
		score -= 0.3
	}
	if strangeRatio > 0.2 {
		score -= 0.5
	}

	if hasRepeatedRun(text, 4) {
		score -= 0.2
	}

	digits, letters := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters > 0 {
		digitRatio := float64(digits) / float64(digits+letters)
		if digitRatio < 0.3 {
			score += 0.1
		}
	}

	return score
}

// hasRepeatedRun reports whether text contains a run of at least n identical
// characters.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func evaluateLanguageConsistency(text string) float64 {
	score := 0.0

	words := strings.Fields(strings.ToLower(text))
	commonCount := 0
	for _, w := range words {
		if _, ok := commonWords[w]; ok {
			commonCount++
		}
	}
	if len(words) > 0 {
		commonRatio := float64(commonCount) / float64(len(words))
		if commonRatio > 0.1 {
			score += 0.1
		}
		if commonRatio > 0.2 {
			score += 0.1
		}
	}

	if connectorRe.MatchString(text) {
		score += 0.05
	}
	if suffixRe.MatchString(text) {
		score += 0.05
	}

	return score
}

// TextStatistics summarizes basic shape metrics of a transcript.
type TextStatistics struct {
	WordCount           int     `json:"wordCount"`
	CharCount           int     `json:"charCount"`
	SentenceCount       int     `json:"sentenceCount"`
	AvgWordsPerSentence float64 `json:"avgWordsPerSentence"`
	AvgCharsPerWord     float64 `json:"avgCharsPerWord"`
	Confidence          float64 `json:"confidence"`
}

// Statistics computes word, character, and sentence counts plus averages
// rounded to one decimal place, together with the confidence score.
func Statistics(text string) TextStatistics {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return TextStatistics{}
	}

	words := strings.Fields(clean)
	sentences := 0
	for _, s := range strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	stats := TextStatistics{
		WordCount:     len(words),
		CharCount:     len([]rune(clean)),
		SentenceCount: sentences,
		Confidence:    Score(text),
	}
	if sentences > 0 {
		stats.AvgWordsPerSentence = round1(float64(len(words)) / float64(sentences))
	}
	if len(words) > 0 {
		nonSpace := 0
		for _, r := range clean {
			if !unicode.IsSpace(r) {
				nonSpace++
			}
		}
		stats.AvgCharsPerWord = round1(float64(nonSpace) / float64(len(words)))
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
