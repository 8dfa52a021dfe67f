// Package extractors provides the signal extractors of the academic
// integrity decision engine. Each extractor implements the ports.Extractor
// interface and computes exactly one independent similarity or authenticity
// signal from the submission text and, where applicable, the reference
// corpus.
package extractors

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// Common errors returned by extractor constructors.
var (
	// ErrEmptyExtractorName is returned when attempting to create an
	// extractor with an empty name.
	ErrEmptyExtractorName = errors.New("extractor name cannot be empty")

	// ErrNilDependency is returned when a required backend dependency is
	// missing.
	ErrNilDependency = errors.New("required dependency is nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder, shared so tokenization
// does not allocate a new caser per call.
var foldCaser = cases.Fold()

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize splits text into case-folded word tokens. Punctuation is
// dropped; numbers are kept as tokens.
func tokenize(text string) []string {
	return wordPattern.FindAllString(foldCaser.String(text), -1)
}

// ngrams produces the overlapping n-grams of the token stream as
// space-joined strings. Streams shorter than n degrade to the tokens
// themselves so very short texts still compare at the unigram level.
func ngrams(words []string, n int) []string {
	if n <= 1 || len(words) < n {
		return words
	}
	grams := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		grams = append(grams, strings.Join(words[i:i+n], " "))
	}
	return grams
}

// splitSentences breaks text on terminal punctuation, dropping fragments
// too short to be real sentences.
func splitSentences(text string) []string {
	parts := sentencePattern.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && len(strings.Fields(p)) > 2 {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

var sentencePattern = regexp.MustCompile(`[.!?]+`)

// splitParagraphs breaks text on blank lines.
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(p))
		}
	}
	return paragraphs
}

// meanVariance returns the mean and population variance of the samples.
func meanVariance(samples []int) (mean, variance float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	for _, s := range samples {
		mean += float64(s)
	}
	mean /= float64(len(samples))
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return mean, variance
}

// clamp bounds a score to [0,100].
func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
